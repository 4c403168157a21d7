package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"textscan/scan"
	"textscan/watch"
	"textscan/webhook"

	"github.com/spf13/viper"
)

type scannerConfig struct {
	Type     string `json:"type"`
	File     string `json:"file"`
	Registry string `json:"registry"`
	Comment  string `json:"comment"`
}

// Flusher is implemented by processors that report once caught up.
type Flusher interface {
	Flush() error
}

var envPath = flag.String("env", "env.json", "env path")

func parseScanners() []*scannerConfig {
	var scanners []*scannerConfig
	viper.UnmarshalKey("scanner", &scanners)
	return scanners
}

func processFile(ctx context.Context, config *scannerConfig, notifier scan.Notifier, files *watch.Files, file *watch.FileState) {
	processor, err := scan.New(config.Type, config.File, config.Comment, notifier)
	if err != nil {
		log.Fatalf("Failed to create processor: %v", err)
	}
	reader, err := file.Open()
	if err != nil {
		log.Printf("Failed to open file: %s, %v", file.Path, err)
		return
	}
	defer file.Close()
	caughtUp := false
	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := processor.Process(reader)
			file.Checkpoint()
			files.SetDirty()
			if err != nil && (err != io.EOF || filepath.Base(file.Path) != filepath.Base(config.File)) {
				if err != io.EOF {
					log.Printf("process file error: %s, %v", file.Path, err)
				}
				if f, ok := processor.(Flusher); ok {
					f.Flush()
				}
				return
			}
			if err == io.EOF {
				if !caughtUp {
					if f, ok := processor.(Flusher); ok {
						f.Flush()
					}
					caughtUp = true
				}
				time.Sleep(time.Second * 1) // 等待文件写入新内容
			} else {
				caughtUp = false
			}
		}
	}
}

func main() {
	flag.Parse()
	if *envPath == "" {
		log.Fatalf("env path is required")
	}
	viper.SetConfigFile(*envPath)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}
	scanners := parseScanners()
	reporter := webhook.NewReporter()
	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())
	for _, scanner := range scanners {
		wg.Add(1)
		go func(config *scannerConfig) {
			defer wg.Done()
			files, err := watch.NewFiles(ctx, config.Registry, config.File)
			if err != nil {
				log.Fatalf("Failed to create registry: %v", err)
			}
			defer files.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case file := <-files.List():
					processFile(ctx, config, reporter, files, file)
				}
			}
		}(scanner)
	}
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sigReceived := <-sigChan
	log.Printf("Received signal: %v", sigReceived)
	cancel()
	wg.Wait()
}
