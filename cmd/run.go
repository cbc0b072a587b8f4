package cmd

import (
	"context"
	"net"
	"net/http"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sifis-home/aud-sensor/anomaly"
	"github.com/sifis-home/aud-sensor/aud"
	"github.com/sifis-home/aud-sensor/capture"
	"github.com/sifis-home/aud-sensor/config"
	"github.com/sifis-home/aud-sensor/conntrack"
	"github.com/sifis-home/aud-sensor/control"
	"github.com/sifis-home/aud-sensor/controller"
	"github.com/sifis-home/aud-sensor/printer"
	"github.com/sifis-home/aud-sensor/publish"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start capturing on an interface and detecting anomalies.",
	Long:  "Opens a raw socket on the given interface, tracks connections crossing this host, builds an Application Usage Description per remote conversation, and raises/publishes anomalies as flows depart from it.",
	RunE:  runSensor,
}

func init() {
	runCmd.Flags().String("interface", "", "Network interface to capture on (required)")
	runCmd.Flags().String("publish-endpoint", "", "Endpoint anomalies are published to")
	runCmd.Flags().String("publish-transport", "", `Publish transport: "ws" or "http"`)
	runCmd.Flags().String("control-addr", "", "Address the HTTP control surface listens on")
	runCmd.MarkFlagRequired("interface")

	viper.BindPFlag(config.Interface, runCmd.Flags().Lookup("interface"))
	viper.BindPFlag(config.PublishEndpoint, runCmd.Flags().Lookup("publish-endpoint"))
	viper.BindPFlag(config.PublishTransport, runCmd.Flags().Lookup("publish-transport"))
	viper.BindPFlag(config.ControlAddr, runCmd.Flags().Lookup("control-addr"))
}

func runSensor(cmd *cobra.Command, args []string) error {
	localIP, err := capture.PrimaryLocalIP()
	if err != nil {
		return errors.Wrap(err, "failed to determine primary local IP")
	}
	printer.Infof("run: local IP is %s\n", localIP)

	queue := capture.NewQueue(config.QueueDepthValue())

	reader, err := capture.NewReader(config.InterfaceValue(), queue)
	if err != nil {
		return errors.Wrapf(err, "failed to open capture socket on %q", config.InterfaceValue())
	}
	go reader.Run()
	defer reader.Stop()

	table := conntrack.NewTable([]net.IP{localIP})
	registry := aud.NewRegistry(nil)
	engine := anomaly.NewEngine(config.RingCapacityValue(), config.FrequencyWindowValue(), config.FrequencyThresholdValue())

	transport, err := buildTransport()
	if err != nil {
		return err
	}
	pub := publish.NewPublisher(transport)
	defer pub.Close()

	c := controller.New(table, registry, engine, queue, pub,
		config.DrainIntervalValue(), config.TickIntervalValue(), config.LogTailLinesValue())

	srv := control.NewServer(control.Server{
		Status:   c,
		Diag:     c,
		Benign:   c,
		Ticker:   c,
		Learning: c,
		Log:      c,
	})

	httpSrv := &http.Server{Addr: config.ControlAddrValue(), Handler: srv.Handler()}
	go func() {
		printer.Infof("run: control surface listening on %s\n", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			printer.Errorf("control surface stopped: %v\n", err)
		}
	}()
	defer httpSrv.Close()

	c.Run(context.Background())
	return nil
}

func buildTransport() (publish.Transport, error) {
	endpoint := config.PublishEndpointValue()
	switch config.PublishTransportValue() {
	case "http":
		return publish.NewHTTPTransport(endpoint, nil), nil
	case "ws", "":
		return publish.NewWSTransport(endpoint), nil
	default:
		return nil, errors.Errorf("unknown publish transport %q", config.PublishTransportValue())
	}
}
