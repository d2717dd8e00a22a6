// Command btrun hosts a behavior tree runner behind a WebSocket control
// channel, configured from a YAML project file (§6.4).
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	opentracing "github.com/opentracing/opentracing-go"

	"github.com/skyrocket-qy/behaviortree/engine/config"
	"github.com/skyrocket-qy/behaviortree/engine/control"
	"github.com/skyrocket-qy/behaviortree/engine/support"
)

func main() {
	configPath := flag.String("config", "", "path to a project config.yaml (optional)")
	flag.Parse()

	cfg := config.Default()

	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("btrun: %v", err)
		}

		cfg = loaded
	}

	ts := support.New()
	if err := support.RegisterBuiltins(ts); err != nil {
		log.Fatalf("btrun: register builtins: %v", err)
	}

	// opentracing.GlobalTracer() is a no-op until a host process calls
	// opentracing.SetGlobalTracer with a real backend (Jaeger, Zipkin,
	// ...); wiring it here means every tick is already traceable the
	// moment a host does that, with no change to this binary.
	runner := control.NewRunner(
		ts,
		control.WithTickRate(cfg.TickRateHz),
		control.WithProjectDir(cfg.ProjectDir),
		control.WithRemoveNodePolicy(cfg.RemoveNodePolicy.ToBt()),
		control.WithTracer(control.OpenTracingTracer{Tracer: opentracing.GlobalTracer()}),
	)

	transport := control.NewWebsocketTransport(runner)

	mux := http.NewServeMux()
	mux.Handle("/ws", transport)

	stop := make(chan struct{})

	go func() {
		log.Printf("btrun: listening on %s", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			log.Printf("btrun: http server stopped: %v", err)
		}
	}()

	go transport.Broadcast()
	go runner.Run(stop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Print("btrun: shutting down")
	close(stop)
}
