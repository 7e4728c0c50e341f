package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/messaging"
	"github.com/shandysiswandi/gootp/internal/pkg/uid"
	"github.com/shandysiswandi/gootp/internal/shared/event"
	"github.com/shandysiswandi/gootp/internal/verification/usecase"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client  messaging.Publisher
	ins     instrument.Instrumentation
	eventID uid.StringID
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation, eventID uid.StringID) *Messaging {
	return &Messaging{client: client, ins: ins, eventID: eventID}
}

func (m *Messaging) PublishCodeIssued(ctx context.Context, msg usecase.CodeIssuedEvent) error {
	ctx, span := m.ins.Tracer("verification.outbound.mq").Start(ctx, "PublishCodeIssued")
	defer span.End()

	body, err := json.Marshal(event.VerificationCodeIssuedMessage{
		EventID:          m.eventID.Generate(),
		VerificationCode: msg.Code.VerificationCode,
		OneTimePass:      msg.Code.OneTimePass,
		Address:          msg.Code.Address,
		AddressKind:      msg.Code.AddressKind.String(),
		CreatedAt:        msg.Code.CreatedAt,
		ExpiresAt:        msg.ExpiresAt,
	})
	if err != nil {
		return failed(span, err)
	}

	return m.publish(ctx, span, event.VerificationCodeIssuedDestination, msg.Code.Address, body)
}

func (m *Messaging) PublishCodeValidated(ctx context.Context, msg usecase.CodeValidatedEvent) error {
	ctx, span := m.ins.Tracer("verification.outbound.mq").Start(ctx, "PublishCodeValidated")
	defer span.End()

	body, err := json.Marshal(event.VerificationCodeValidatedMessage{
		EventID:          m.eventID.Generate(),
		VerificationCode: msg.Code.VerificationCode,
		Address:          msg.Code.Address,
		VerificationData: msg.Code.VerificationData,
		Attempts:         msg.Code.Attempts,
		ValidatedAt:      msg.ValidatedAt,
	})
	if err != nil {
		return failed(span, err)
	}

	return m.publish(ctx, span, event.VerificationCodeValidatedDestination, msg.Code.Address, body)
}

// publish keys messages by address so Kafka keeps one recipient's events on one partition.
func (m *Messaging) publish(ctx context.Context, span trace.Span, dest, address string, body []byte) error {
	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, dest, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(address),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		return failed(span, err)
	}

	return nil
}

func failed(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
