// yamcs-link runs the sample component behind a GCS link.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rdx-aegse/yamcs-link/config"
	"github.com/rdx-aegse/yamcs-link/helpers"
	"github.com/rdx-aegse/yamcs-link/internal/demo"
	"github.com/rdx-aegse/yamcs-link/link"
	"github.com/rdx-aegse/yamcs-link/log2"
	"github.com/rdx-aegse/yamcs-link/transport"
	"github.com/temoto/alive/v2"
)

func main() {
	flagConfig := flag.String("config", "yamcs-link.hcl", "")
	flagMdbOnly := flag.Bool("mdb-only", false, "write mission database and exit")
	flag.Parse()

	log := log2.NewStderr(log2.LInfo)
	if sdnotify("start") {
		// under systemd, journal adds timestamps
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	fs, err := config.NewOsFullReader("")
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	cfg := config.MustReadConfig(log, fs, *flagConfig)
	level, err := cfg.LogLevel()
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	log.SetLevel(level)
	log.Debugf("config=%+v", cfg)

	if err := run(cfg, log, *flagMdbOnly); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

func run(cfg *config.Config, log *log2.Log, mdbOnly bool) error {
	lc, err := cfg.LinkConfig()
	if err != nil {
		return errors.Trace(err)
	}
	stat := link.NewStat()
	registry := prometheus.NewRegistry()
	if err = stat.Register(registry); err != nil {
		return errors.Trace(err)
	}

	var tr transport.Transporter
	if mdbOnly {
		tr = transport.NewMock()
	} else {
		ln, err := transport.Listen(cfg.TransportOptions(stat), log)
		if err != nil {
			return errors.Trace(err)
		}
		tr = ln
	}
	// Shutdown closes it too, Close is idempotent
	defer tr.Close()
	svc, err := link.New(lc, tr, log, stat)
	if err != nil {
		return errors.Trace(err)
	}
	svc.SetResultFunc(func(r *link.Result, err error) {
		if err == nil && r.Err == nil {
			log.Debugf("command=%s args=%v result=%v", r.Command, r.Args, r.Value)
		}
	})

	comp := demo.New("component1", log)
	if err = comp.Register(svc, nil); err != nil {
		return errors.Trace(err)
	}
	if _, err = svc.GenerateSchema(cfg.Mdb.OutDir); err != nil {
		return errors.Trace(err)
	}
	if mdbOnly {
		return errors.Trace(svc.Shutdown())
	}

	a := alive.NewAlive()
	if cfg.Metrics.Listen != "" {
		serveMetrics(a, cfg.Metrics.Listen, registry, log)
	}
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		select {
		case s := <-sigCh:
			log.Infof("signal=%v stopping", s)
			a.Stop()
		case <-a.StopChan():
		}
	}()

	sdnotify(daemon.SdNotifyReady)
	log.Infof("link=%s running tick=%v", cfg.Name(), cfg.TickPeriod())
	ctx := context.WithValue(context.Background(), log2.ContextKey, log)
	ticker := time.NewTicker(cfg.TickPeriod())
	stopCh := a.StopChan()
loop:
	for {
		select {
		case <-ticker.C:
			if err := svc.Tick(ctx); err != nil {
				log.Errorf("tick: %v", err)
			}
		case <-stopCh:
			break loop
		}
	}
	ticker.Stop()
	sdnotify(daemon.SdNotifyStopping)
	err = svc.Shutdown()
	a.Wait()
	return errors.Trace(err)
}

func serveMetrics(root *alive.Alive, addr string, registry *prometheus.Registry, log *log2.Log) {
	srv := &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	metricsAlive := alive.NewAlive()
	root.Add(1)
	go helpers.AliveSub(root, metricsAlive)
	go func() {
		defer root.Done()
		<-metricsAlive.StopChan()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	go func() {
		log.Infof("metrics listen=%s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics: %v", err)
			metricsAlive.Stop()
		}
	}()
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log2.NewStderr(log2.LError).Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
