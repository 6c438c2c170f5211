package main

import (
	"net/http"
	"os"
	"time"

	"github.com/containerstack/registry/configuration"
	"github.com/containerstack/registry/internal/dcontext"
	"github.com/containerstack/registry/registry/handlers"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ServeCmd runs the registry's HTTP server, following the teacher's
// cmd/registry ServeCmd shape (load config, configure logging, build the
// App, listen).
var ServeCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "`serve` stores and distributes container images",
	Long:  "`serve` stores and distributes container images.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			exitUsage("usage: registry serve <file>")
		}
		path := args[0]

		cfg, err := configuration.Load(path)
		if err != nil {
			exitMissingConfig(path, err)
		}

		if info, err := os.Stat(cfg.StoragePath); err != nil || !info.IsDir() {
			exitMissingStorage(cfg.StoragePath, err)
		}

		configureLogging()

		app := handlers.NewApp(cfg)

		dcontext.GetLogger(dcontext.Background()).Infof("listening on %s", cfg.ListenAddress)
		if err := http.ListenAndServe(cfg.ListenAddress, app); err != nil {
			logrus.Fatalln(err)
		}
	},
}

func configureLogging() {
	logrus.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339Nano})
	logrus.SetLevel(logrus.InfoLevel)
	dcontext.SetDefaultLogger(logrus.NewEntry(logrus.StandardLogger()))
}
