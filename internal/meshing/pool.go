package meshing

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"voxelbake/internal/world"
)

// MeshJob represents a meshing job request
type MeshJob struct {
	Chunk *world.Chunk
	Coord world.ChunkCoord
	// Result channel - will be sent the result when done
	ResultChan chan MeshResult
}

// MeshResult contains the result of a meshing operation
type MeshResult struct {
	Coord world.ChunkCoord
	Mesh  *MeshData
	Error error
}

// WorkerPool manages goroutines for mesh generation. Each worker owns a
// Generator; the state source must not be mutated while jobs are running.
type WorkerPool struct {
	jobQueue chan MeshJob
	workers  int
	states   StateSource
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewWorkerPool creates a new mesh worker pool
func NewWorkerPool(states StateSource, workers int, queueSize int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	pool := &WorkerPool{
		jobQueue: make(chan MeshJob, queueSize),
		workers:  workers,
		states:   states,
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	return pool
}

// SubmitJob submits a mesh generation job to the pool
// Returns true if job was submitted successfully, false if queue is full
func (p *WorkerPool) SubmitJob(job MeshJob) bool {
	select {
	case p.jobQueue <- job:
		return true
	case <-p.ctx.Done():
		return false
	default:
		return false // Queue is full
	}
}

// SubmitJobBlocking submits a job and blocks until it's queued
func (p *WorkerPool) SubmitJobBlocking(job MeshJob) bool {
	select {
	case p.jobQueue <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	gen := NewGenerator(p.states)

	for {
		select {
		case job := <-p.jobQueue:
			result := MeshResult{Coord: job.Coord}
			if job.Chunk == nil {
				result.Error = errors.Errorf("worker %d: no chunk at %v", id, job.Coord)
			} else {
				result.Mesh = gen.GenerateMeshData(job.Chunk).Clone()
			}

			select {
			case job.ResultChan <- result:
			case <-p.ctx.Done():
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// MeshChunks meshes every given chunk and returns the results keyed by coord.
// It stops early when ctx is cancelled.
func (p *WorkerPool) MeshChunks(ctx context.Context, store *world.ChunkStore, coords []world.ChunkCoord) (map[world.ChunkCoord]*MeshData, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "mesh chunks")
	}
	results := make(chan MeshResult, len(coords))
	pending := 0

	for _, coord := range coords {
		job := MeshJob{Chunk: store.GetChunk(coord, false), Coord: coord, ResultChan: results}
		select {
		case p.jobQueue <- job:
			pending++
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "mesh chunks")
		case <-p.ctx.Done():
			return nil, errors.New("mesh chunks: pool shut down")
		}
	}

	meshes := make(map[world.ChunkCoord]*MeshData, pending)
	for ; pending > 0; pending-- {
		select {
		case r := <-results:
			if r.Error != nil {
				return nil, r.Error
			}
			meshes[r.Coord] = r.Mesh
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "mesh chunks")
		}
	}
	return meshes, nil
}

// Shutdown stops the workers and waits for them to exit.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// GetQueueLength returns the current number of jobs in the queue
func (p *WorkerPool) GetQueueLength() int {
	return len(p.jobQueue)
}

func (p *WorkerPool) Workers() int {
	return p.workers
}
