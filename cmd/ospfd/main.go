// Command ospfd runs the OSPF-derived link-state routing engine against
// the host's network interfaces, flooding and consuming link-state
// advertisements over raw Ethernet and reconciling the results into an
// in-process IPv4 routing table.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clw11/ospfd/internal/config"
	"github.com/clw11/ospfd/internal/ospf"
	"github.com/clw11/ospfd/internal/router"
	"github.com/clw11/ospfd/internal/transport"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	configPath = flag.String("config", "", "Path to the daemon config file. Default is ~/.ospfd/config.json.")
	ifaceList  = flag.String("interfaces", "", "Comma-separated interface names to run OSPF on. Default is every non-loopback IPv4 interface.")
	promAddr   = flag.String("prom", "", "Prometheus metrics export address. Overrides the config file's metricsAddr.")
	verbose    = flag.Bool("verbose", false, "Log every dropped inbound packet, not just the counters.")
	printEvery = flag.Duration("print-interval", 0, "Periodically log the neighbor table and LSDB at this interval. 0 disables it.")
)

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	cfg, err := loadConfig()
	rtx.Must(err, "could not load configuration")

	if *ifaceList != "" {
		cfg.Interfaces = strings.Split(*ifaceList, ",")
	}
	if *promAddr != "" {
		cfg.MetricsAddr = *promAddr
	}
	if *verbose {
		cfg.Verbose = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	promSrv := prometheusx.MustStartPrometheus(cfg.MetricsAddr)
	defer promSrv.Shutdown(ctx)

	metrics := ospf.NewMetrics(prometheus.DefaultRegisterer)
	tport := transport.New()
	defer tport.Close()

	lister := router.Lister{Only: cfg.Interfaces}
	routes := router.NewTable()

	engCfg := ospf.Config{
		HelloInterval: time.Duration(cfg.HelloIntervalSeconds) * time.Second,
		DeadInterval:  time.Duration(cfg.DeadIntervalSeconds) * time.Second,
		LSAMaxAge:     time.Duration(cfg.LSAMaxAgeSeconds) * time.Second,
		Verbose:       cfg.Verbose,
	}
	engine, err := ospf.New(lister, tport, routes, metrics, log.Default(), engCfg)
	rtx.Must(err, "could not start the routing engine")

	ifaces, err := lister.List()
	rtx.Must(err, "could not enumerate interfaces")
	if len(ifaces) == 0 {
		log.Fatal("ospfd: no usable interfaces found")
	}

	handler := func(frame []byte, iface string) {
		if err := engine.HandleOSPF(frame, iface); err != nil {
			log.Printf("ospfd: handling frame on %s: %v", iface, err)
		}
	}

	for _, iface := range ifaces {
		iface := iface
		go func() {
			if err := tport.Listen(ctx, iface.Name, handler); err != nil {
				log.Printf("ospfd: listener on %s exited: %v", iface.Name, err)
			}
		}()
		log.Printf("ospfd: running on %s (%s)", iface.Name, iface.String())
	}

	if *printEvery > 0 {
		go printLoop(ctx, engine, *printEvery)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Print("ospfd: shutting down")
		cancel()
	}()

	rtx.Must(engine.Run(ctx), "routing engine exited with an error")
}

// printLoop logs the neighbor table and LSDB every interval, giving an
// operator a way to trigger spec.md §6's print-neighbors/print-lsdb
// diagnostics without attaching a debugger.
func printLoop(ctx context.Context, engine *ospf.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Print(engine.PrintNeighbors())
			log.Print(engine.PrintLSDB())
		}
	}
}

func loadConfig() (*config.Config, error) {
	path := *configPath
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "config.json")
	}
	return config.Load(path)
}
