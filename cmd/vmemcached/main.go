// SPDX-License-Identifier: MIT
//
// vmemcached - an in-memory value cache service.
//

package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"net/netip"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"vmemcache/api"
	"vmemcache/cache"
	"vmemcache/config"
	"vmemcache/log"
)

const progname = "vmemcached"

var (
	// set by build flags
	version     string
	versionDate string
)

func main() {
	isDebug := flag.Bool("debug", false, "enable debug profiling")
	logLevel := flag.String("log-level", "info", "log level: trace/debug/info/notice/warn/error")
	configDir := flag.String("config-dir", "",
		fmt.Sprintf("config directory (default \"${XDG_CONFIG_HOME}/%s\")",
			strings.ToLower(progname)))
	configInit := flag.Bool("config-init", false, "initialize with the default configs")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (%s)\n", progname, version, versionDate)
		return
	}

	config.SetVersion(&config.VersionInfo{
		Version: version,
		Date:    versionDate,
	})

	log.SetLevelString(*logLevel)
	log.Infof("set log level to [%s]", *logLevel)

	if *configDir == "" {
		if dir := os.Getenv("XDG_CONFIG_HOME"); dir == "" {
			fmt.Printf("ERROR: ${XDG_CONFIG_HOME} required but missing\n")
			os.Exit(1)
		} else {
			*configDir = filepath.Join(dir, strings.ToLower(progname))
			log.Infof("use default config directory: %s", *configDir)
		}
	}

	if *configInit {
		if err := config.Initialize(*configDir); err != nil {
			fmt.Printf("ERROR: failed to initialize config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := config.Load(*configDir); err != nil {
		fmt.Printf("ERROR: failed to load config: %v\n", err)
		os.Exit(1)
	}
	cf := config.Get()

	addr, err := netip.ParseAddr(cf.ListenAddr)
	if err != nil {
		log.Fatalf("invalid listen_addr: %s, error: %v", cf.ListenAddr, err)
	}
	addrport := netip.AddrPortFrom(addr, uint16(cf.ListenPort))
	baseURL := "http://" + addrport.String()
	if addr.IsUnspecified() {
		log.Warnf("cache server is publicly accessible! (addr=%s)", addr.String())
	}

	c, err := cache.New(cf.HeapSizeBytes, cf.FragmentSize)
	if err != nil {
		log.Fatalf("failed to create cache (heap=%d frag=%d): %v",
			cf.HeapSizeBytes, cf.FragmentSize, err)
	}
	log.Infof("cache ready: heap=%d bytes, fragment=%d bytes", cf.HeapSizeBytes, cf.FragmentSize)

	apiHandler := api.NewApiHandler(c)

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiHandler))

	if *isDebug {
		path := "/debug/pprof/"
		mux.HandleFunc(path, pprof.Index)
		mux.HandleFunc(path+"cmdline", pprof.Cmdline)
		mux.HandleFunc(path+"profile", pprof.Profile)
		mux.HandleFunc(path+"symbol", pprof.Symbol)
		mux.HandleFunc(path+"trace", pprof.Trace)
		log.Infof("enabled debug pprof at: %s%s", baseURL, path)
	}

	listener, err := net.Listen("tcp", addrport.String())
	if err != nil {
		log.Fatalf("failed to listen at: %s, error: %v", addrport.String(), err)
	}

	wg := &sync.WaitGroup{}
	wg.Add(1)
	server := &http.Server{Handler: mux}
	go func() {
		defer wg.Done()
		log.Infof("serving cache API: %s", baseURL)
		err := server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("cache server failed: %v", err)
		}
	}()

	// Set up signal capturing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	// Clean up.
	if err := server.Close(); err != nil {
		log.Errorf("failed to close the cache server: %v", err)
	}
	if err := c.Close(); err != nil {
		log.Errorf("failed to close the cache: %v", err)
	}

	wg.Wait()
	log.Infof("done; exiting")
}
