// Command poolctl exercises a dynamic connection pool under concurrent load
// and reports its stats and health as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sourcegraph/conc"

	"github.com/esoxlabs/objectpool/config"
	"github.com/esoxlabs/objectpool/errs"
	"github.com/esoxlabs/objectpool/observability"
	"github.com/esoxlabs/objectpool/pool"
)

const loggerPrefix = "poolctl "

func main() {
	var (
		configPath = flag.String("config", "", "path to pool settings yaml")
		workers    = flag.Int("workers", 8, "concurrent workers")
		ops        = flag.Int("ops", 200, "checkouts per worker")
		holdTime   = flag.Duration("hold", 2*time.Millisecond, "time each worker holds a lease")
	)
	flag.Parse()

	logger := log.New(os.Stderr, loggerPrefix, log.LstdFlags|log.Lmsgprefix)
	observability.SetLogger(stdLogger{logger})

	ctx, cancel := newSignalContext()
	defer cancel()

	cfg, err := loadSettings(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	logger.Printf("settings: pool=%s size=%d warmup=%d breaker=%v",
		cfg.Name, cfg.MaxPoolSize, cfg.WarmupSize, cfg.Breaker.Enabled)

	var dialSeq atomic.Uint64
	factory := func() (*conn, error) {
		time.Sleep(time.Millisecond) // simulated dial
		return &conn{id: dialSeq.Add(1), dialedAt: time.Now()}, nil
	}

	p, err := pool.NewDynamic(cfg.Name, factory, cfg)
	if err != nil {
		logger.Fatalf("build pool: %v", err)
	}
	defer p.Close()

	start := time.Now()
	if err := runLoad(ctx, p, *workers, *ops, *holdTime); err != nil {
		logger.Fatalf("load run: %v", err)
	}
	logger.Printf("load complete: workers=%d ops=%d elapsed=%s",
		*workers, *workers*(*ops), time.Since(start).Round(time.Millisecond))

	report(p)
}

type conn struct {
	id       uint64
	dialedAt time.Time
}

func runLoad(ctx context.Context, p *pool.DynamicPool[*conn], workers, ops int, hold time.Duration) error {
	var failures atomic.Uint64
	var wg conc.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Go(func() {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = time.Millisecond
			for i := 0; i < ops; i++ {
				if ctx.Err() != nil {
					return
				}
				lease, err := pool.GetWithRetry(ctx, p.TryGet, bo)
				if err != nil {
					failures.Add(1)
					if errs.HasCode(err, errs.CodeClosed) {
						return
					}
					continue
				}
				time.Sleep(hold)
				lease.Release()
			}
		})
	}
	wg.Wait()

	if n := failures.Load(); n > 0 {
		return fmt.Errorf("%d checkouts failed", n)
	}
	return ctx.Err()
}

func report(p *pool.DynamicPool[*conn]) {
	out := struct {
		Stats  pool.Stats        `json:"stats"`
		Health pool.HealthStatus `json:"health"`
	}{Stats: p.Stats(), Health: p.Health()}

	if err := pool.WriteJSON(os.Stdout, out); err != nil {
		log.Fatalf("write report: %v", err)
	}
	fmt.Println()
}

func loadSettings(path string) (config.Settings, error) {
	if path == "" {
		cfg := config.Default()
		cfg.Name = "poolctl"
		cfg.MaxPoolSize = 16
		cfg.WarmupSize = 4
		cfg.GetTimeout = 5 * time.Second
		return cfg, nil
	}
	return config.Load(path)
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// stdLogger adapts the standard library logger to the observability seam.
type stdLogger struct {
	l *log.Logger
}

func (s stdLogger) Debug(msg string, fields ...observability.Field) { s.print("DEBUG", msg, fields) }
func (s stdLogger) Info(msg string, fields ...observability.Field)  { s.print("INFO", msg, fields) }
func (s stdLogger) Error(msg string, fields ...observability.Field) { s.print("ERROR", msg, fields) }

func (s stdLogger) print(level, msg string, fields []observability.Field) {
	line := level + " " + msg
	for _, f := range fields {
		line += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	s.l.Print(line)
}
