// Package notification publica avisos a vendedores. El envío real (email/SMS/WhatsApp) lo hace
// el consumidor del tópico.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/pkg/config"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

var (
	_ ports.NotificationSender = (*PubSubSender)(nil)
	_ ports.NotificationSender = (*LogSender)(nil)
)

// Message cuerpo publicado en el tópico.
type Message struct {
	CompanyID string            `json:"company_id"`
	Template  string            `json:"template"`
	Params    map[string]string `json:"params"`
	SentAt    time.Time         `json:"sent_at"`
}

// PubSubSender publica cada notificación como un mensaje JSON.
type PubSubSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	log    *logger.Logger
}

// NewPubSubSender crea el cliente; con CredentialsJSON vacío usa las credenciales por defecto del entorno.
func NewPubSubSender(ctx context.Context, cfg config.PubSubConfig, log *logger.Logger) (*PubSubSender, error) {
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub: crear cliente: %w", err)
	}
	topic := client.Topic(cfg.Topic)
	ok, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pubsub: verificar tópico %q: %w", cfg.Topic, err)
	}
	if !ok {
		if topic, err = client.CreateTopic(ctx, cfg.Topic); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("pubsub: crear tópico %q: %w", cfg.Topic, err)
		}
	}
	log.Info().Str("project_id", cfg.ProjectID).Str("topic", cfg.Topic).Msg("pubsub listo")
	return &PubSubSender{client: client, topic: topic, log: log}, nil
}

// Send publica y espera el ID del servidor.
func (s *PubSubSender) Send(ctx context.Context, companyID, template string, params map[string]string) error {
	data, err := json.Marshal(Message{CompanyID: companyID, Template: template, Params: params, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	res := s.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"template": template, "company_id": companyID},
	})
	id, err := res.Get(ctx)
	if err != nil {
		return fmt.Errorf("pubsub: publicar %s: %w", template, err)
	}
	s.log.Debug().Str("message_id", id).Str("template", template).Str("company_id", companyID).Msg("notificación publicada")
	return nil
}

// Close vacía los mensajes pendientes y cierra el cliente.
func (s *PubSubSender) Close() error {
	s.topic.Stop()
	return s.client.Close()
}

// LogSender escribe la notificación en el log (desarrollo o sin proyecto configurado).
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, companyID, template string, params map[string]string) error {
	ev := s.log.Info().Str("company_id", companyID).Str("template", template)
	for k, v := range params {
		ev = ev.Str("param_"+k, v)
	}
	ev.Msg("notificación")
	return nil
}
