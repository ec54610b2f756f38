// pathctl is the operator console: it dispatches catalogue paths to the
// vehicle and prints its acknowledgments.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"line-follower/internal/catalog"
	"line-follower/internal/logger"
	"line-follower/internal/messaging"
	"line-follower/internal/protocol"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: pathctl [flags] <command>

Commands:
  init        request the default path and dispatch it once acknowledged
  task <id>   dispatch catalogue path <id>
  stop        end the current run at the next intersection
  watch       print acknowledgments until interrupted
  status      print the last published navigation state
  paths       print the path catalogue

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found (using environment variables)")
	}

	host := flag.String("host", envOr("REDIS_HOST", "127.0.0.1"), "Redis host")
	port := flag.Int("port", envInt("REDIS_PORT", 6379), "Redis port")
	catalogPath := flag.String("catalog", os.Getenv("PATHCTL_CATALOG"), "Path catalogue (TOML); built-in catalogue if empty")
	queue := flag.Bool("queue", false, "LPUSH commands instead of publishing them")
	timeout := flag.Duration("timeout", 10*time.Second, "How long init waits for ack_init")
	logLevel := flag.Int("log", 2, "Log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	l := logger.NewLogger(logger.NewConsoleWriter(), logger.LogLevel(*logLevel))

	paths := catalog.Default()
	if *catalogPath != "" {
		var err error
		if paths, err = catalog.Load(*catalogPath); err != nil {
			l.Fatalf("%v", err)
		}
	}

	if flag.Arg(0) == "paths" {
		if err := paths.Write(os.Stdout); err != nil {
			l.Fatalf("%v", err)
		}
		return
	}

	client := messaging.NewRedisClient(*host, *port, messaging.DefaultChannels(), l)
	if err := client.Connect(); err != nil {
		l.Fatalf("%v", err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &console{client: client, paths: paths, queue: *queue}

	var err error
	switch flag.Arg(0) {
	case "init":
		err = c.start(ctx, *timeout)
	case "task":
		if flag.NArg() != 2 {
			usage()
			os.Exit(2)
		}
		var id int
		id, err = strconv.Atoi(flag.Arg(1))
		if err != nil {
			err = fmt.Errorf("path id %q: %w", flag.Arg(1), catalog.ErrInvalidPathID)
			break
		}
		err = c.task(id)
	case "stop":
		err = c.stop()
	case "watch":
		err = c.watch(ctx)
	case "status":
		err = c.status()
	default:
		usage()
		os.Exit(2)
	}

	if err != nil && ctx.Err() == nil {
		l.Errorf("%v", err)
		stop()
		client.Close()
		os.Exit(1)
	}
}

type console struct {
	client *messaging.RedisClient
	paths  *catalog.Catalog
	queue  bool
}

// task validates id against the catalogue before anything is sent.
func (c *console) task(id int) error {
	seq, err := c.paths.Lookup(id)
	if err != nil {
		return err
	}
	payload, err := protocol.EncodeTask(seq, id)
	if err != nil {
		return err
	}
	if err := c.client.SendCommand(payload, c.queue); err != nil {
		return err
	}
	fmt.Printf("sent path %d (%s): %s\n", id, c.paths.Name(id), payload)
	return nil
}

func (c *console) stop() error {
	payload, err := protocol.EncodeStop()
	if err != nil {
		return err
	}
	if err := c.client.SendCommand(payload, c.queue); err != nil {
		return err
	}
	fmt.Println("sent stop")
	return nil
}

// start asks the vehicle for its default path and dispatches it.
func (c *console) start(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	w, err := c.client.WatchAcks(ctx)
	if err != nil {
		return err
	}
	defer w.Close()

	payload, err := protocol.EncodeInit()
	if err != nil {
		return err
	}
	if err := c.client.SendCommand(payload, c.queue); err != nil {
		return err
	}

	for {
		ack, err := w.Next(ctx)
		if err != nil {
			return fmt.Errorf("waiting for %s: %w", protocol.TypeAckInit, err)
		}
		if ack.Type != protocol.TypeAckInit {
			continue
		}
		fmt.Printf("vehicle selected path %d\n", ack.PathID)
		return c.task(ack.PathID)
	}
}

func (c *console) status() error {
	state, err := c.client.GetNavigationState()
	if err != nil {
		return err
	}
	if state == "" {
		fmt.Println("no state published")
		return nil
	}
	fmt.Println(state)
	return nil
}

func (c *console) watch(ctx context.Context) error {
	w, err := c.client.WatchAcks(ctx)
	if err != nil {
		return err
	}
	defer w.Close()

	for {
		ack, err := w.Next(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s %-8s path=%d run=%s\n", ack.Timestamp, ack.Type, ack.PathID, ack.RunID)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
