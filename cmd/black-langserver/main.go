package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/sourcegraph/jsonrpc2"
	"gopkg.in/yaml.v3"

	"github.com/blackfmt/black-langserver/core"
	"github.com/blackfmt/black-langserver/lsp"
	"github.com/blackfmt/black-langserver/tool"
	"github.com/blackfmt/black-langserver/types"
)

const (
	name     = "black-langserver"
	version  = "0.1.0"
	revision = "HEAD"
)

func loadConfig(yamlfile string) (*types.Config, error) {
	if yamlfile == "" {
		return &types.Config{}, nil
	}
	f, err := os.Open(yamlfile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var config types.Config
	if err := yaml.NewDecoder(f).Decode(&config); err != nil {
		return nil, fmt.Errorf("can not read configuration: %v", err)
	}
	return &config, nil
}

func main() {
	var yamlfile string
	var logfile string
	var showVersion bool

	flag.StringVar(&yamlfile, "c", "", "path to config.yaml")
	flag.StringVar(&logfile, "log", "", "logfile")
	flag.BoolVar(&showVersion, "v", false, "Print the version")
	flag.Parse()

	if showVersion {
		fmt.Printf("%s %s (rev: %s/%s)\n", name, version, revision, runtime.Version())
		return
	}
	if flag.NArg() != 0 {
		flag.Usage()
		os.Exit(1)
	}

	config, err := loadConfig(yamlfile)
	if err != nil {
		log.Fatal(err)
	}

	if logfile == "" {
		logfile = config.LogFile
	}
	logWriter := os.Stderr
	if logfile != "" {
		f, err := os.OpenFile(logfile, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0660)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		logWriter = f
	}
	logger := log.New(logWriter, "", log.LstdFlags)

	log.Println(name + ": reading on stdin, writing on stdout")

	handler := core.NewHandler(logger, config)
	handler.SetModuleRunner(tool.RunModule)
	defer handler.Close()

	var connOpt []jsonrpc2.ConnOpt
	<-jsonrpc2.NewConn(
		context.Background(),
		jsonrpc2.NewBufferedStream(stdrwc{}, jsonrpc2.VSCodeObjectCodec{}),
		lsp.NewHandler(handler, int64(config.MaxWorkers)), connOpt...).DisconnectNotify()
	log.Println(name + ": connections closed")
}

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
