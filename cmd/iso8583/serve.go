package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	iso8583 "github.com/mkadit/iso8583ebcdic"
	"github.com/mkadit/iso8583ebcdic/adapter/server"
	"github.com/mkadit/iso8583ebcdic/pkg/automaxprocs"
	"github.com/mkadit/iso8583ebcdic/pkg/config"
	"github.com/mkadit/iso8583ebcdic/pkg/logger"
)

func runServe(args []string) error {
	var configPath string
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.StringVarP(&configPath, "config", "c", "", "config file (default: "+defaultConfigFileName+" next to the binary)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := &ServeConfig{}
	var (
		cfgHandler *config.Config
		err        error
	)
	if configPath != "" {
		cfgHandler, err = config.New(filepath.Base(configPath), filepath.Dir(configPath), cfg, nil)
	} else {
		cfgHandler, err = config.New(defaultConfigFileName, "", cfg, nil)
	}
	if err != nil {
		return errors.Wrap(err, "failed to parse config file")
	}
	defer cfgHandler.Close()
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	log, err := logger.New(cfg.Logger.toLogger())
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	cfgHandler.SetLogger(log)

	if cfg.Runtime.GoMaxProcs != nil && *cfg.Runtime.GoMaxProcs > 0 {
		runtime.GOMAXPROCS(*cfg.Runtime.GoMaxProcs)
	} else {
		defer automaxprocs.Init(log)()
	}

	framing, err := cfg.Server.framing()
	if err != nil {
		return err
	}
	codecOpts, err := cfg.Codec.codecOptions()
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg.Codec.CatalogFile)
	if err != nil {
		return err
	}
	packager, err := iso8583.NewPackager(catalog, codecOpts...)
	if err != nil {
		return err
	}

	var responseCode atomic.Value
	responseCode.Store(cfg.Codec.ResponseCode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := server.New(ctx, log, &server.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		Framing:   framing,
		Multicore: *cfg.Server.Multicore,
	}, packager, echoHandler(&responseCode))
	if err != nil {
		return err
	}

	if path := cfg.Codec.CatalogFile; path != "" {
		w, err := config.WatchFile(path, log, func(data []byte) {
			p, err := reloadPackager(path, data, codecOpts)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("catalog reload rejected")
				return
			}
			srv.SetPackager(p)
			log.Info().Str("path", path).Msg("catalog reloaded")
		})
		if err != nil {
			return err
		}
		defer w.Close()
	}

	if err := cfgHandler.AddObserver(func(data interface{}) {
		c := data.(*ServeConfig)
		if err := c.Codec.Validate(); err != nil {
			log.Error().Err(err).Msg("config reload rejected")
			return
		}
		responseCode.Store(c.Codec.ResponseCode)
		log.Info().Str("response_code", c.Codec.ResponseCode).Msg("config reloaded")
	}); err != nil {
		log.Warn().Err(err).Str("path", cfgHandler.GetPath()).Msg("config file will not be watched")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server stopped")
	case <-quit:
	}

	stopCtx, stopCancel := context.WithTimeout(ctx, cfg.Server.shutdownTimeout())
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("failed to stop server")
	}
	log.Info().Msg("server stopped")
	return nil
}

// echoHandler answers every request with its response MTI and the current
// response code. Network management requests always get 00.
func echoHandler(code *atomic.Value) server.Handler {
	return func(_ context.Context, req *iso8583.Message) (*iso8583.Message, error) {
		rc := code.Load().(string)
		if req.IsNMM() {
			rc = "00"
		}
		return req.CreateResponse(rc)
	}
}

func reloadPackager(path string, data []byte, opts []iso8583.PackagerOption) (*iso8583.Packager, error) {
	catalog, err := parseCatalog(path, data)
	if err != nil {
		return nil, err
	}
	return iso8583.NewPackager(catalog, opts...)
}
