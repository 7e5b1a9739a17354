package io

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/ecopia-map/quadtile_loader/internal/quadtree"
	"github.com/ecopia-map/quadtile_loader/pkg/tileloader"
	"github.com/golang/glog"
)

type FileSourceConfig struct {
	Roots         []string // one folder per image layer
	ElevationRoot string   // Terrarium PNG tiles, optional
	Extension     string   // image extension, empty to probe the common ones
	TMS           bool     // y folder component counted from the south
	RawTileSize   int      // width and height of .rgba tiles
	Workers       int      // simultaneous reads, defaults to the number of CPUs
}

// FileDataSource serves tiles stored on disk as <root>/<z>/<x>/<y>.<ext>
type FileDataSource struct {
	producer *StandardProducer
	workers  int
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewFileDataSource(config FileSourceConfig) *FileDataSource {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// buffer 5 times greater than the number of consumers
	workChannel := make(chan *WorkUnit, workers*5)

	s := &FileDataSource{
		producer: NewStandardProducer(ctx, workChannel),
		workers:  workers,
		cancel:   cancel,
	}

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		consumer := NewStandardConsumer(config)
		go consumer.Consume(ctx, workChannel, &s.wg)
	}

	glog.V(1).Infof("file data source started: %d workers, roots %v, elevation %q", workers, config.Roots, config.ElevationRoot)
	return s
}

func (s *FileDataSource) MaxSimultaneousFetches() int {
	return s.workers
}

func (s *FileDataSource) StartFetch(receiver tileloader.TileReceiver, ident quadtree.Identifier, attrs map[string]any) {
	unit := &WorkUnit{
		Ident:    ident,
		Attrs:    attrs,
		Receiver: receiver,
		Queued:   time.Now(),
	}
	if !s.producer.Produce(unit) {
		glog.Warningf("fetch of %v after close dropped", ident)
	}
}

// Stops the consumers. Fetches not started yet are never answered.
func (s *FileDataSource) Close() {
	s.cancel()
	s.producer.Wait()
	s.wg.Wait()
}
