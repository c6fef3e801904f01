package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"badge-studio/config"
	"badge-studio/handlers/api/badges"
	"badge-studio/handlers/websocket"
	"badge-studio/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

func setupRouter(store stores.Store, cfg config.Config, notifier badges.Notifier) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/gallery", func(r chi.Router) {
		r.Get("/", badges.HandleList(store))
		r.Post("/", badges.HandleCreate(store, badges.Options{
			MaxEntries:     cfg.GalleryMaxEntries,
			MaxUploadBytes: cfg.MaxUploadBytes,
			Notifier:       notifier,
		}))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/image", badges.HandleImage(store))
			r.Get("/thumbnail", badges.HandleThumbnail(store))
		})
	})

	r.Get("/", badges.HandlePage(store))

	return r
}

func waitForShutdown(ioo *socketio.Server) {
	exit := make(chan struct{})
	signalC := make(chan os.Signal, 1)

	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range signalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	fmt.Println("Shutting down...")
	ioo.Close(nil)
	os.Exit(0)
}

func serve(cfg config.Config) {
	store := stores.GetStore(cfg)

	ioo := websocket.SetupSocketIO(cfg.AllowedOrigins)
	r := setupRouter(store, cfg, websocket.NewGalleryNotifier(ioo))
	r.Handle("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithField("addr", cfg.ListenAddr).Info("starting server")
	go func() {
		if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	listenAddr := flag.String("listen", cfg.ListenAddr, "The address to listen on.")
	logLevel := flag.String("loglevel", cfg.LogLevel, "The log level (debug, info, warn, error).")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [serve|make [make flags]]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	cfg.ListenAddr = *listenAddr

	switch cmd := flag.Arg(0); cmd {
	case "", "serve":
		serve(cfg)
	case "make":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := runMake(ctx, cfg, flag.Args()[1:], os.Stdout); err != nil {
			logrus.WithError(err).Error("Failed to make badge")
			stop()
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
}
