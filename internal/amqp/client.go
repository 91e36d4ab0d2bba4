// Package amqp implements voice recognition over RabbitMQ: each session
// publishes a request to a recognition worker and waits on a private reply
// queue for exactly one answer.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"smartexpense/internal/log"
	"smartexpense/internal/voice"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures     = 5
	openTimeout     = 30 * time.Second
	maxBackoff      = 30 * time.Second
	maxDialAttempts = 5
	publishTimeout  = 5 * time.Second
)

var (
	errCircuitOpen  = errors.New("circuit breaker is open")
	errClientClosed = errors.New("amqp client closed")
)

type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *log.Logger

	mu      sync.Mutex // guards conn, channel and closed
	conn    *amqp091.Connection
	channel *amqp091.Channel
	closed  bool

	// dial and channelClosed default to amqp091.Dial and Channel.IsClosed.
	dial          func(url string) (*amqp091.Connection, error)
	channelClosed func(*amqp091.Channel) bool

	state        int32
	failureCount int64
	breakerMu    sync.Mutex
	lastFailure  time.Time
}

var _ voice.Recognizer = (*Client)(nil)

// NewClient dials the broker, retrying connection errors with exponential
// backoff, and declares the request exchange and queue.
func NewClient(ctx context.Context, url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}

	var err error
	for attempt := 0; attempt < maxDialAttempts; attempt++ {
		if err = client.connect(); err == nil {
			break
		}
		if !isConnectionError(err) || attempt == maxDialAttempts-1 {
			return nil, err
		}
		wait := exponentialBackoff(attempt)
		client.logger.WarnContext(ctx, "AMQP dial failed, retrying",
			log.FieldError, err, "attempt", attempt+1, "backoff", wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	client.logger.InfoContext(ctx, "AMQP recognizer ready",
		"exchange", exchangeName, "queue", queueName)
	return client, nil
}

func (c *Client) connect() error {
	dial := c.dial
	if dial == nil {
		dial = amqp091.Dial
	}
	conn, err := dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.mu.Lock()
	old := c.conn
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()
	if old != nil {
		old.Close()
	}

	if err := c.setup(); err != nil {
		c.mu.Lock()
		c.dropConnection()
		c.mu.Unlock()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

// liveChannel returns the open channel, redialing when a channel or connection
// exception has closed it or a previous reconnect left none.
func (c *Client) liveChannel(ctx context.Context) (*amqp091.Channel, error) {
	c.mu.Lock()
	ch, closed := c.channel, c.closed
	c.mu.Unlock()
	if closed {
		return nil, errClientClosed
	}
	if ch != nil && !c.isClosed(ch) {
		return ch, nil
	}

	c.logger.WarnContext(ctx, "AMQP channel closed, reconnecting")
	if err := c.connect(); err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("reconnect: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel, nil
}

func (c *Client) isClosed(ch *amqp091.Channel) bool {
	if c.channelClosed != nil {
		return c.channelClosed(ch)
	}
	return ch.IsClosed()
}

func (c *Client) setup() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Requests queue, consumed by the recognition worker
	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Start publishes one recognition request and returns a subscription that
// yields the matching reply. Closing the subscription cancels the consumer and
// deletes the reply queue.
func (c *Client) Start(ctx context.Context, lang string) (*voice.Subscription, error) {
	if c.isCircuitOpen() {
		return nil, fmt.Errorf("start recognition: %w", errCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch, err := c.liveChannel(ctx)
	if err != nil {
		return nil, err
	}

	corrID := uuid.NewString()
	consumerTag := "voice-" + corrID

	c.mu.Lock()
	reply, deliveries, err := c.openReplyQueue(ch, consumerTag)
	c.mu.Unlock()
	if err != nil {
		c.recordFailure()
		return nil, err
	}

	teardown := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := ch.Cancel(consumerTag, false); err != nil {
			c.logger.Debug("Cancel reply consumer", log.FieldError, err)
		}
		if _, err := ch.QueueDelete(reply, false, false, false); err != nil {
			c.logger.Debug("Delete reply queue", log.FieldError, err)
		}
	}

	if err := c.publishRequest(ctx, ch, corrID, reply, lang); err != nil {
		teardown()
		c.recordFailure()
		return nil, err
	}
	c.recordSuccess()

	results := make(chan voice.Result, 1)
	done := make(chan struct{})
	go awaitReply(deliveries, corrID, results, done)

	c.logger.InfoContext(ctx, "Recognition requested",
		"correlation_id", corrID, "reply_to", reply, "lang", lang)

	return voice.NewSubscription(results, func() {
		close(done)
		teardown()
	}), nil
}

// openReplyQueue must be called with mu held.
func (c *Client) openReplyQueue(ch *amqp091.Channel, consumerTag string) (string, <-chan amqp091.Delivery, error) {
	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return "", nil, fmt.Errorf("declare reply queue: %w", err)
	}

	deliveries, err := ch.Consume(
		q.Name,      // queue
		consumerTag, // consumer
		true,        // auto-ack
		true,        // exclusive
		false,       // no-local
		false,       // no-wait
		nil,
	)
	if err != nil {
		ch.QueueDelete(q.Name, false, false, false)
		return "", nil, fmt.Errorf("consume reply queue: %w", err)
	}
	return q.Name, deliveries, nil
}

func (c *Client) publishRequest(ctx context.Context, ch *amqp091.Channel, corrID, replyTo, lang string) error {
	body, err := NewRecognitionRequest(corrID, lang).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:   "application/json",
			CorrelationId: corrID,
			ReplyTo:       replyTo,
			Timestamp:     time.Now(),
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish request: %w", err)
	}
	return nil
}

// awaitReply forwards the first delivery carrying corrID and returns.
func awaitReply(deliveries <-chan amqp091.Delivery, corrID string, results chan<- voice.Result, done <-chan struct{}) {
	defer close(results)
	for {
		select {
		case <-done:
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if d.CorrelationId != corrID {
				continue
			}
			results <- toVoiceResult(d.Body)
			return
		}
	}
}

func toVoiceResult(body []byte) voice.Result {
	msg, err := RecognitionResultFromJSON(body)
	if err != nil {
		return voice.Result{Err: fmt.Errorf("decode reply: %w", err)}
	}
	if msg.Error != "" {
		return voice.Result{Err: errors.New(msg.Error)}
	}
	return voice.Result{Transcript: msg.Transcript}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.dropConnection()
}

// dropConnection must be called with mu held.
func (c *Client) dropConnection() error {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.breakerMu.Lock()
	last := c.lastFailure
	c.breakerMu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.breakerMu.Lock()
	c.lastFailure = time.Now()
	c.breakerMu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
