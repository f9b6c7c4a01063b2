package broadcast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// NATS carries events over a NATS subject so sibling processes see them too.
type NATS struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATS connects to url.
func NewNATS(url string, logger *slog.Logger) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("tableboard"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATS{conn: conn, logger: logger}, nil
}

func (b *NATS) Publish(ctx context.Context, ev model.TablesChanged) error {
	data, err := encode(ev)
	if err != nil {
		return err
	}
	return b.conn.Publish(Subject, data)
}

func (b *NATS) Subscribe(handler func(model.TablesChanged)) (func(), error) {
	sub, err := b.conn.Subscribe(Subject, func(msg *nats.Msg) {
		ev, err := decode(msg.Data)
		if err != nil {
			b.logger.Warn("dropping malformed broadcast", slog.String("error", err.Error()))
			return
		}
		handler(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", Subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

func (b *NATS) Close() error {
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
	return nil
}
