package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/silentbot/wschatd/internal/config"
	"github.com/silentbot/wschatd/internal/filestore"
	"github.com/silentbot/wschatd/internal/handler"
	"github.com/silentbot/wschatd/internal/httpmsg"
	"github.com/silentbot/wschatd/internal/router"
	"github.com/silentbot/wschatd/internal/server"
	"github.com/silentbot/wschatd/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.DefaultConfig()

	listen := flag.String("listen", cfg.ListenAddr, "address to listen on")
	logLevel := flag.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-listen addr] [-log-level level] <doc_root>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return 1
	}

	cfg.ListenAddr = *listen
	cfg.LogLevel = *logLevel
	cfg.DocRoot = flag.Arg(0)

	log.SetLevel(parseLevel(cfg.LogLevel))

	store, err := filestore.Load(cfg.DocRoot)
	if err != nil {
		log.Error().Err(err).Msgf("loading document root %q", cfg.DocRoot)
		return 1
	}

	r := buildRouter(store)

	srv := server.New(cfg, r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		return 1
	}

	return 0
}

func buildRouter(store *filestore.Store) *router.Router {
	r := router.New(store)
	requestLogger := handler.NewRequestLogger()

	index := handler.NewStaticFileHandler(store, "index.html")
	r.AddRoute(httpmsg.MethodGet, "/", handler.NewDecorator(requestLogger, index))
	r.AddRoute(httpmsg.MethodGet, "/index.html", handler.NewDecorator(requestLogger, index))
	r.AddRoute(httpmsg.MethodGet, "/script.js", handler.NewStaticFileHandler(store, "script.js"))

	favicon := handler.NewStaticFileHandler(store, "favicon.png")
	r.AddRoute(httpmsg.MethodGet, "/favicon.ico", handler.NewDecorator(requestLogger, favicon))

	return r
}

func parseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
