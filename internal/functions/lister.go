package functions

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"qscope/internal/logger"
	"qscope/pkg/tracing"
)

// LambdaAPI is the subset of the Lambda client used here.
type LambdaAPI interface {
	lambda.ListFunctionsAPIClient
	GetFunction(ctx context.Context, params *lambda.GetFunctionInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error)
}

type FunctionInfo struct {
	Name         string `json:"function_name"`
	Runtime      string `json:"runtime"`
	Handler      string `json:"handler"`
	CodeSize     int64  `json:"code_size"`
	LastModified string `json:"last_modified"`
	Version      string `json:"version"`
	State        string `json:"state"`
	Architecture string `json:"architecture"`
	Description  string `json:"description,omitempty"`
	Timeout      int32  `json:"timeout,omitempty"`
	MemorySize   int32  `json:"memory_size,omitempty"`
	PackageType  string `json:"package_type,omitempty"`
}

type Statistics struct {
	TotalFunctions  int            `json:"total_functions"`
	ByRuntime       map[string]int `json:"by_runtime"`
	ByArchitecture  map[string]int `json:"by_architecture"`
	ByState         map[string]int `json:"by_state"`
	TotalCodeSize   int64          `json:"total_code_size"`
	TotalCodeSizeMB float64        `json:"total_code_size_mb"`
	AverageTimeout  float64        `json:"average_timeout"`
	AverageMemory   float64        `json:"average_memory"`
}

// ListFilter narrows a listing. Runtime and Name match case-insensitive
// substrings, State and Architecture match exactly ignoring case.
type ListFilter struct {
	Runtime      string `json:"runtime,omitempty"`
	Name         string `json:"name,omitempty"`
	State        string `json:"state,omitempty"`
	Architecture string `json:"architecture,omitempty"`
}

func (f ListFilter) IsZero() bool {
	return f == ListFilter{}
}

func (f ListFilter) Matches(fn FunctionInfo) bool {
	if f.Runtime != "" && !strings.Contains(strings.ToLower(fn.Runtime), strings.ToLower(f.Runtime)) {
		return false
	}
	if f.Name != "" && !strings.Contains(strings.ToLower(fn.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.State != "" && !strings.EqualFold(fn.State, f.State) {
		return false
	}
	if f.Architecture != "" && !strings.EqualFold(fn.Architecture, f.Architecture) {
		return false
	}
	return true
}

type Listing struct {
	GeneratedAt   time.Time      `json:"generated_at"`
	Region        string         `json:"region"`
	Filters       *ListFilter    `json:"filters_applied,omitempty"`
	OriginalCount int            `json:"original_count"`
	Statistics    Statistics     `json:"statistics"`
	Functions     []FunctionInfo `json:"functions"`
}

type Lister struct {
	client LambdaAPI
	region string
	logger logger.Logger
}

func NewLister(client LambdaAPI, region string, log logger.Logger) *Lister {
	return &Lister{client: client, region: region, logger: log}
}

// List pages through every function in the account, sorted by name, then
// applies filter. Statistics describe the filtered set.
func (l *Lister) List(ctx context.Context, filter ListFilter) (*Listing, error) {
	ctx, span := tracing.StartSpan(ctx, "qscope-functions", "functions.list")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	var all []FunctionInfo
	paginator := lambda.NewListFunctionsPaginator(l.client, &lambda.ListFunctionsInput{})
	for paginator.HasMorePages() {
		var page *lambda.ListFunctionsOutput
		page, err = paginator.NextPage(ctx)
		if err != nil {
			err = classify(err, "")
			return nil, err
		}
		for _, fn := range page.Functions {
			all = append(all, toFunctionInfo(fn))
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})

	listing := &Listing{
		GeneratedAt:   time.Now().UTC(),
		Region:        l.region,
		OriginalCount: len(all),
		Functions:     all,
	}
	if !filter.IsZero() {
		f := filter
		listing.Filters = &f
		kept := make([]FunctionInfo, 0, len(all))
		for _, fn := range all {
			if filter.Matches(fn) {
				kept = append(kept, fn)
			}
		}
		listing.Functions = kept
	}
	listing.Statistics = ComputeStatistics(listing.Functions)

	l.logger.InfowCtx(ctx, "Listed functions",
		"total", listing.OriginalCount,
		"after_filter", len(listing.Functions),
	)
	return listing, nil
}

func ComputeStatistics(fns []FunctionInfo) Statistics {
	stats := Statistics{
		TotalFunctions: len(fns),
		ByRuntime:      make(map[string]int),
		ByArchitecture: make(map[string]int),
		ByState:        make(map[string]int),
	}
	var timeout, memory int64
	var detailed int
	for _, fn := range fns {
		stats.ByRuntime[fn.Runtime]++
		stats.ByArchitecture[fn.Architecture]++
		stats.ByState[fn.State]++
		stats.TotalCodeSize += fn.CodeSize
		if fn.Timeout > 0 && fn.MemorySize > 0 {
			timeout += int64(fn.Timeout)
			memory += int64(fn.MemorySize)
			detailed++
		}
	}
	stats.TotalCodeSizeMB = round(float64(stats.TotalCodeSize)/(1024*1024), 2)
	if detailed > 0 {
		stats.AverageTimeout = round(float64(timeout)/float64(detailed), 1)
		stats.AverageMemory = round(float64(memory)/float64(detailed), 1)
	}
	return stats
}

func toFunctionInfo(fn types.FunctionConfiguration) FunctionInfo {
	info := FunctionInfo{
		Name:         aws.ToString(fn.FunctionName),
		Runtime:      string(fn.Runtime),
		Handler:      aws.ToString(fn.Handler),
		CodeSize:     fn.CodeSize,
		LastModified: aws.ToString(fn.LastModified),
		Version:      aws.ToString(fn.Version),
		State:        string(fn.State),
		Architecture: string(types.ArchitectureX8664),
		Description:  aws.ToString(fn.Description),
		Timeout:      aws.ToInt32(fn.Timeout),
		MemorySize:   aws.ToInt32(fn.MemorySize),
		PackageType:  string(fn.PackageType),
	}
	if info.Runtime == "" {
		info.Runtime = "N/A"
	}
	if info.Handler == "" {
		info.Handler = "N/A"
	}
	if info.Version == "" {
		info.Version = "$LATEST"
	}
	if info.State == "" {
		info.State = string(types.StateActive)
	}
	if len(fn.Architectures) > 0 {
		info.Architecture = string(fn.Architectures[0])
	}
	return info
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
