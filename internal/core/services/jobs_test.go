package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/reposync/internal/core/domain"
)

func TestResolveJobLimits(t *testing.T) {
	tuning := domain.DefaultJobTuning()

	tests := []struct {
		name string
		req  domain.JobRequest
		res  domain.ResourceLimits
		want domain.JobLimits
	}{
		{
			name: "nothing configured",
			res:  domain.ResourceLimits{CPUCount: 4},
			want: domain.JobLimits{Jobs: 4, Network: 1, Checkout: domain.DefaultLocalJobs},
		},
		{
			name: "user jobs",
			req:  domain.JobRequest{Jobs: 10},
			res:  domain.ResourceLimits{CPUCount: 4},
			want: domain.JobLimits{Jobs: 10, Network: 10, Checkout: 10},
		},
		{
			name: "workspace default",
			req:  domain.JobRequest{WorkspaceDefault: 6},
			res:  domain.ResourceLimits{CPUCount: 4},
			want: domain.JobLimits{Jobs: 6, Network: 6, Checkout: 6},
		},
		{
			name: "user jobs win over workspace default",
			req:  domain.JobRequest{Jobs: 10, WorkspaceDefault: 6},
			res:  domain.ResourceLimits{CPUCount: 4},
			want: domain.JobLimits{Jobs: 10, Network: 10, Checkout: 10},
		},
		{
			name: "network override only",
			req:  domain.JobRequest{NetworkJobs: 3},
			res:  domain.ResourceLimits{CPUCount: 4},
			want: domain.JobLimits{Jobs: 4, Network: 3, Checkout: domain.DefaultLocalJobs},
		},
		{
			name: "overrides with configured",
			req:  domain.JobRequest{Jobs: 10, NetworkJobs: 3, CheckoutJobs: 2},
			res:  domain.ResourceLimits{CPUCount: 4},
			want: domain.JobLimits{Jobs: 10, Network: 3, Checkout: 2},
		},
		{
			name: "clamped by open file limit",
			req:  domain.JobRequest{Jobs: 200},
			res:  domain.ResourceLimits{CPUCount: 4, OpenFileSoftLimit: 256},
			want: domain.JobLimits{Jobs: 83, Network: 83, Checkout: 83},
		},
		{
			name: "clamp is independent per level",
			req:  domain.JobRequest{Jobs: 200, NetworkJobs: 20},
			res:  domain.ResourceLimits{CPUCount: 4, OpenFileSoftLimit: 256},
			want: domain.JobLimits{Jobs: 83, Network: 20, Checkout: 83},
		},
		{
			name: "zero limit disables the clamp",
			req:  domain.JobRequest{Jobs: 500},
			res:  domain.ResourceLimits{CPUCount: 4},
			want: domain.JobLimits{Jobs: 500, Network: 500, Checkout: 500},
		},
		{
			name: "tiny limit still allows one job",
			req:  domain.JobRequest{Jobs: 8},
			res:  domain.ResourceLimits{CPUCount: 4, OpenFileSoftLimit: 6},
			want: domain.JobLimits{Jobs: 1, Network: 1, Checkout: 1},
		},
		{
			name: "no cpu information",
			res:  domain.ResourceLimits{},
			want: domain.JobLimits{Jobs: 1, Network: 1, Checkout: domain.DefaultLocalJobs},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveJobLimits(tt.req, tt.res, tuning))
		})
	}
}

func TestResolveJobLimits_CustomTuning(t *testing.T) {
	tuning := domain.JobTuning{LocalJobs: 4, FDReserve: 10, FDPerJob: 5}

	got := ResolveJobLimits(domain.JobRequest{}, domain.ResourceLimits{CPUCount: 16, OpenFileSoftLimit: 40}, tuning)

	// (40 - 10) / 5 = 6
	assert.Equal(t, domain.JobLimits{Jobs: 6, Network: 1, Checkout: 4}, got)
}

func TestResolveJobLimits_ZeroTuningUsesDefaults(t *testing.T) {
	res := domain.ResourceLimits{CPUCount: 128, OpenFileSoftLimit: 256}

	got := ResolveJobLimits(domain.JobRequest{}, res, domain.JobTuning{})

	assert.Equal(t, ResolveJobLimits(domain.JobRequest{}, res, domain.DefaultJobTuning()), got)
	// (256 - 5) / 3 = 83
	assert.Equal(t, domain.JobLimits{Jobs: 83, Network: 1, Checkout: 8}, got)
}

func TestResolveJobLimits_InfiniteLimit(t *testing.T) {
	got := ResolveJobLimits(
		domain.JobRequest{Jobs: 64},
		domain.ResourceLimits{CPUCount: 4, OpenFileSoftLimit: ^uint64(0)},
		domain.DefaultJobTuning(),
	)
	assert.Equal(t, 64, got.Jobs)
}

type stubProbe struct {
	cpus  int
	limit uint64
	err   error
}

func (s stubProbe) CPUCount() int                  { return s.cpus }
func (s stubProbe) OpenFileLimit() (uint64, error) { return s.limit, s.err }

func TestProbeResources(t *testing.T) {
	assert.Equal(t, domain.ResourceLimits{CPUCount: 8, OpenFileSoftLimit: 1024},
		ProbeResources(stubProbe{cpus: 8, limit: 1024}))

	assert.Equal(t, domain.ResourceLimits{CPUCount: 8},
		ProbeResources(stubProbe{cpus: 8, limit: 1024, err: errors.New("denied")}))

	assert.Equal(t, domain.ResourceLimits{CPUCount: 1}, ProbeResources(nil))
}
