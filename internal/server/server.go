package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sensorhub/internal/config"
	httpController "sensorhub/internal/controller/http"
	managerImpl "sensorhub/internal/manager/hub"
	"sensorhub/internal/transport"
	"sensorhub/pkg/version"
)

const probeTimeout = 2 * time.Second
const shutdownTimeout = 5 * time.Second
const daemonInterval = time.Second

type mainApp struct {
	name string
	cmd  *cobra.Command
	args []string
	opt  *config.SensorHubOpt
}

// ProbeSensor lists the serial ports that deliver hub packets
func (a *mainApp) ProbeSensor() error {
	log.Infoln("probing hub devices...")
	res := transport.ProbeSerial(transport.ListSerialPorts(), a.opt.Source.Baud, probeTimeout)
	if len(res) == 0 {
		err := errors.New("no valid ports found")
		log.Errorln(err)
		return err
	}
	log.Infof("found %d valid hub devices:", len(res))
	for _, v := range res {
		fmt.Printf("- %s\n", strings.TrimSpace(v))
	}
	return nil
}

// ListKinds prints the compiled sensor set of the configured build
func (a *mainApp) ListKinds() error {
	p, err := NewPipeline(a.opt.Hub)
	if err != nil {
		log.Errorln(err)
		return err
	}
	return WriteKinds(os.Stdout, p)
}

// Decode decodes a replay file to JSON lines on stdout
func (a *mainApp) Decode(path string) error {
	p, err := NewPipeline(a.opt.Hub)
	if err != nil {
		log.Errorln(err)
		return err
	}
	src := transport.NewReplaySource(config.SourceOpt{Type: config.SourceReplay, Name: path})
	decoded, dropped, err := DecodeStream(p.Decoder, src, os.Stdout)
	log.Infof("decoded %d records, dropped %d", decoded, dropped)
	return err
}

func (a *mainApp) GetOpt() *config.SensorHubOpt {
	return a.opt
}

func (a *mainApp) SetOpt(opt *config.SensorHubOpt) { a.opt = opt }

func (a *mainApp) Run() error {
	log.Infoln("version:", version.GitVersion)
	log.Infoln("api.port:", a.opt.API.Port)
	log.Infoln("api.interface:", a.opt.API.Interface)
	log.Infoln("hub.variant:", a.opt.Hub.Variant)
	log.Infof("hub.features: %+v", a.opt.Hub.Features)
	log.Infoln("source:", a.opt.Source.Type, a.opt.Source.Name)
	log.Infoln("debug:", a.opt.Debug)

	p, err := NewPipeline(a.opt.Hub)
	if err != nil {
		log.Errorln(err)
		return err
	}
	src, err := transport.NewSource(a.opt.Source, p.Channels)
	if err != nil {
		log.Errorln(err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// start manager
	m := managerImpl.NewManager(src, p.Decoder, p.Registry)
	if err := m.Start(); err != nil {
		log.Warnln("source not ready, daemon will retry:", err)
	}
	go managerImpl.Daemon(ctx, m, daemonInterval)

	// install and start api server
	addr := a.opt.API.Interface + ":" + strconv.Itoa(a.opt.API.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: httpController.NewRouter(m, p.Channels, p.Variant, a.opt.Debug),
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("start http listen on ", addr)
		errCh <- srv.ListenAndServe()
	}()

	// wait for exit
	select {
	case <-ctx.Done():
		log.Infoln("shutting down")
	case err = <-errCh:
		log.Errorln("failed to serve...", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if e := srv.Shutdown(shutdownCtx); e != nil {
		log.Warnln(e)
	}
	if e := m.Stop(); e != nil {
		log.Warnln(e)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *mainApp) PrepareRun() MainApp {
	desc := config.NewSensorHubDesc()
	err := desc.Parse(a.cmd)
	if err != nil {
		log.Errorln(err)
		os.Exit(1)
		return nil
	}
	desc.PostParse()
	a.opt = &desc.Opt
	a.name = config.DefaultAppName
	return a
}

type MainApp interface {
	Run() error
	PrepareRun() MainApp
	GetOpt() *config.SensorHubOpt
	SetOpt(*config.SensorHubOpt)
	ProbeSensor() error
	ListKinds() error
	Decode(string) error
}

func NewMainApp(cmd *cobra.Command, args []string) MainApp {
	return &mainApp{
		cmd:  cmd,
		args: args,
	}
}
