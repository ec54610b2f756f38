package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"line-follower/internal/logger"
	"line-follower/internal/protocol"
	"line-follower/internal/types"
)

// Callbacks are invoked from listener goroutines, never from the control loop.
type Callbacks struct {
	TaskCallback func(cmd protocol.Command) error
	InitCallback func() error
	StopCallback func(cmd protocol.Command) error
}

// Channels names the Redis keys used by the service.
type Channels struct {
	Commands    string // pub/sub channel for inbound commands
	CommandList string // list for LPUSH'd inbound commands
	Acks        string // pub/sub channel for acknowledgments
	StateHash   string // hash holding navigation state, also the notify channel
}

func DefaultChannels() Channels {
	return Channels{
		Commands:    "line-follower:commands",
		CommandList: "line-follower:commands:queue",
		Acks:        "line-follower:acks",
		StateHash:   "line-follower",
	}
}

type RedisClient struct {
	client      *redis.Client
	callbacks   Callbacks
	channels    Channels
	logger      *logger.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	pollTimeout time.Duration
}

func NewRedisClient(host string, port int, channels Channels, l *logger.Logger) *RedisClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", host, port),
			DB:   0,
		}),
		channels:    channels,
		logger:      l,
		ctx:         ctx,
		cancel:      cancel,
		pollTimeout: time.Second,
	}
}

func (r *RedisClient) SetCallbacks(callbacks Callbacks) {
	r.callbacks = callbacks
}

func (r *RedisClient) Connect() error {
	r.logger.Infof("Attempting to connect to Redis at %s", r.client.Options().Addr)

	if err := r.client.Ping(r.ctx).Err(); err != nil {
		r.logger.Warnf("Redis connection failed: %v", err)
		return fmt.Errorf("Redis connection failed: %w", err)
	}
	r.logger.Infof("Successfully connected to Redis")
	return nil
}

// StartListening starts the command listeners. Call it once callbacks are set
// and the navigator is ready to accept replacements.
func (r *RedisClient) StartListening() error {
	r.logger.Infof("Starting Redis listeners")

	pubsub := r.client.Subscribe(r.ctx, r.channels.Commands)
	// Wait for the subscription so commands published right after start are not lost.
	if _, err := pubsub.Receive(r.ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", r.channels.Commands, err)
	}
	r.logger.Infof("Subscribed to Redis channel: %s", r.channels.Commands)

	r.wg.Add(2)
	go r.redisListener(pubsub)
	go r.listCommandListener(r.channels.CommandList)

	return nil
}

func (r *RedisClient) listCommandListener(key string) {
	defer r.wg.Done()
	r.logger.Infof("Starting list command listener for %s", key)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Infof("Context cancelled, exiting %s listener", key)
			return
		default:
			// Short BRPOP timeout so cancellation is noticed promptly
			result, err := r.client.BRPop(r.ctx, r.pollTimeout, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if errors.Is(err, context.Canceled) || r.ctx.Err() != nil {
					r.logger.Infof("Context cancelled, exiting %s listener", key)
					return
				}
				r.logger.Warnf("Error reading from %s list: %v", key, err)
				time.Sleep(r.pollTimeout)
				continue
			}

			if len(result) >= 2 { // BRPOP returns [key, value]
				r.HandlePayload(key, []byte(result[1]))
			}
		}
	}
}

func (r *RedisClient) redisListener(pubsub *redis.PubSub) {
	defer r.wg.Done()
	defer pubsub.Close()

	r.logger.Infof("Starting Redis message listener")
	channel := pubsub.Channel()

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Infof("Context cancelled, exiting listener")
			return
		case msg, ok := <-channel:
			if !ok {
				if r.ctx.Err() != nil {
					return
				}
				r.logger.Fatalf("Redis connection lost, exiting to allow systemd restart")
			}
			r.HandlePayload(msg.Channel, []byte(msg.Payload))
		}
	}
}

// HandlePayload decodes and dispatches one inbound command. Malformed payloads
// are logged and dropped without acknowledgment.
func (r *RedisClient) HandlePayload(source string, payload []byte) {
	r.logger.Debugf("Received command from %s: %s", source, payload)

	cmd, err := protocol.Decode(payload)
	if err != nil {
		r.logger.Warnf("Discarding command from %s: %v", source, err)
		return
	}

	var handlerErr error
	switch cmd.Type {
	case protocol.TypeTask:
		if r.callbacks.TaskCallback != nil {
			handlerErr = r.callbacks.TaskCallback(cmd)
		}
	case protocol.TypeInit:
		if r.callbacks.InitCallback != nil {
			handlerErr = r.callbacks.InitCallback()
		}
	case protocol.TypeStop:
		if r.callbacks.StopCallback != nil {
			handlerErr = r.callbacks.StopCallback(cmd)
		}
	}
	if handlerErr != nil {
		r.logger.Warnf("Error handling %s command: %v", cmd.Type, handlerErr)
	}
}

// PublishAck sends an acknowledgment to the console.
func (r *RedisClient) PublishAck(ack protocol.Ack) error {
	payload, err := ack.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", ack.Type, err)
	}
	if err := r.client.Publish(r.ctx, r.channels.Acks, payload).Err(); err != nil {
		r.logger.Warnf("Failed to publish %s: %v", ack.Type, err)
		return err
	}
	r.logger.Infof("Published %s for path %d", ack.Type, ack.PathID)
	return nil
}

// publishHashSet is a helper that atomically updates hash fields and publishes a notification
func (r *RedisClient) publishHashSet(hash string, values map[string]interface{}, channel, payload string) error {
	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, hash, values)
	pipe.Publish(r.ctx, channel, payload)
	_, err := pipe.Exec(r.ctx)
	return err
}

func (r *RedisClient) PublishNavigationState(state types.NavigationState) error {
	r.logger.Debugf("Publishing navigation state: %s", state)
	timestamp := time.Now().Format(time.RFC3339)

	err := r.publishHashSet(r.channels.StateHash, map[string]interface{}{
		"state":           string(state),
		"state:timestamp": timestamp,
	}, r.channels.StateHash, "state")
	if err != nil {
		r.logger.Warnf("Failed to publish navigation state: %v", err)
		return err
	}
	return nil
}

// PublishProgress records which maneuver of which path is executing.
func (r *RedisClient) PublishProgress(pathID, index int, m types.Maneuver) error {
	err := r.publishHashSet(r.channels.StateHash, map[string]interface{}{
		"path-id":  pathID,
		"cursor":   index,
		"maneuver": m.String(),
	}, r.channels.StateHash, "progress")
	if err != nil {
		r.logger.Warnf("Failed to publish progress: %v", err)
		return err
	}
	return nil
}

// GetNavigationState reads the last published state.
func (r *RedisClient) GetNavigationState() (types.NavigationState, error) {
	value, err := r.client.HGet(r.ctx, r.channels.StateHash, "state").Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get navigation state: %w", err)
	}
	return types.NavigationState(value), nil
}

// SendCommand publishes a command payload. With queue set the payload is
// LPUSH'd instead so a vehicle that is not subscribed yet still receives it.
func (r *RedisClient) SendCommand(payload []byte, queue bool) error {
	var err error
	if queue {
		err = r.client.LPush(r.ctx, r.channels.CommandList, payload).Err()
	} else {
		err = r.client.Publish(r.ctx, r.channels.Commands, payload).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	r.logger.Debugf("Sent command %s", payload)
	return nil
}

// AckWatcher receives acknowledgments published by the vehicle.
type AckWatcher struct {
	pubsub  *redis.PubSub
	channel <-chan *redis.Message
	logger  *logger.Logger
}

// WatchAcks subscribes to the acknowledgment channel. The subscription is live
// when it returns, so commands sent afterwards cannot race their ack.
func (r *RedisClient) WatchAcks(ctx context.Context) (*AckWatcher, error) {
	pubsub := r.client.Subscribe(ctx, r.channels.Acks)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", r.channels.Acks, err)
	}
	return &AckWatcher{
		pubsub:  pubsub,
		channel: pubsub.Channel(),
		logger:  r.logger,
	}, nil
}

// Next blocks until the next well-formed acknowledgment or ctx is done.
func (w *AckWatcher) Next(ctx context.Context) (protocol.Ack, error) {
	for {
		select {
		case <-ctx.Done():
			return protocol.Ack{}, ctx.Err()
		case msg, ok := <-w.channel:
			if !ok {
				return protocol.Ack{}, errors.New("acknowledgment subscription closed")
			}
			ack, err := protocol.DecodeAck([]byte(msg.Payload))
			if err != nil {
				w.logger.Warnf("Ignoring acknowledgment: %v", err)
				continue
			}
			return ack, nil
		}
	}
}

func (w *AckWatcher) Close() error {
	return w.pubsub.Close()
}

func (r *RedisClient) Close() error {
	r.logger.Infof("Closing Redis client")
	r.cancel()

	// Wait for all goroutines to finish with a timeout
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Infof("All Redis goroutines finished")
	case <-time.After(5 * time.Second):
		r.logger.Warnf("Timeout waiting for Redis goroutines to finish")
	}

	return r.client.Close()
}
