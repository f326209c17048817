package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/notification"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/logger"
)

// Publisher は通知依頼を RabbitMQ のキューへ発行する
// 接続は使い回し、切断されていれば次回の発行時に張り直す
type Publisher struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewPublisher は接続を確立し、キューを宣言する
func NewPublisher(url, queue string) (*Publisher, error) {
	p := &Publisher{url: url, queue: queue}
	if _, err := p.connection(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗しました: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("チャネル作成に失敗しました: %w", err)
	}
	defer ch.Close()

	// ブローカー再起動後もメッセージが残るよう durable で宣言する
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("キュー宣言に失敗しました: %w", err)
	}
	p.conn = conn
	logger.Info("RabbitMQ接続完了", zap.String("queue", p.queue))
	return conn, nil
}

// Publish は通知依頼を永続メッセージとして発行する
func (p *Publisher) Publish(ctx context.Context, msg *notification.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("通知依頼の変換に失敗しました: %w", err)
	}

	conn, err := p.connection()
	if err != nil {
		return err
	}
	// チャネルはゴルーチン間で共有できないため発行ごとに開く
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("チャネル作成に失敗しました: %w", err)
	}
	defer ch.Close()

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(msg.Type),
		MessageId:    msg.ReservationID + ":" + string(msg.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("通知依頼の発行に失敗しました: %w", err)
	}
	return nil
}

// Close は接続を閉じる
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

var _ notification.Publisher = (*Publisher)(nil)
