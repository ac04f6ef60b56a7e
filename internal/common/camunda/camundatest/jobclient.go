// internal/common/camunda/camundatest/jobclient.go

// Package camundatest provides an in-process worker.JobClient whose commands
// are answered by a recording gateway instead of a broker.
package camundatest

import (
	"context"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"google.golang.org/grpc"
)

// JobClient records complete, fail and throw-error commands. CompleteErrs
// are returned, in order, by the first CompleteJob calls.
type JobClient struct {
	worker.JobClient

	mu           sync.Mutex
	CompleteErrs []error
	Completed    []*pb.CompleteJobRequest
	Failed       []*pb.FailJobRequest
	Thrown       []*pb.ThrowErrorRequest
	attempts     int
}

func NewJobClient(completeErrs ...error) *JobClient {
	return &JobClient{CompleteErrs: completeErrs}
}

func noRetry(context.Context, error) bool { return false }

func (c *JobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(&gateway{c: c}, noRetry)
}

func (c *JobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(&gateway{c: c}, noRetry)
}

func (c *JobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(&gateway{c: c}, noRetry)
}

// CompleteAttempts counts every CompleteJob call, failed ones included.
func (c *JobClient) CompleteAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

type gateway struct {
	pb.GatewayClient
	c *JobClient
}

func (g *gateway) CompleteJob(_ context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	g.c.attempts++
	if len(g.c.CompleteErrs) > 0 {
		err := g.c.CompleteErrs[0]
		g.c.CompleteErrs = g.c.CompleteErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	g.c.Completed = append(g.c.Completed, in)
	return &pb.CompleteJobResponse{}, nil
}

func (g *gateway) FailJob(_ context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	g.c.Failed = append(g.c.Failed, in)
	return &pb.FailJobResponse{}, nil
}

func (g *gateway) ThrowError(_ context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	g.c.Thrown = append(g.c.Thrown, in)
	return &pb.ThrowErrorResponse{}, nil
}
