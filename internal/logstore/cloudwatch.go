// cloudwatch.go adapts the AWS CloudWatch Logs API to the PageCursor and GroupLister contracts.
package logstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/go-logr/logr"
)

// DefaultRegion is used when neither cwl nor the AWS configuration chain names a region.
const DefaultRegion = "us-east-1"

// CloudWatchAPI is the subset of the CloudWatch Logs client cwl calls.
type CloudWatchAPI interface {
	FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error)
	DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
}

// ClientOptions selects the AWS profile and region.
type ClientOptions struct {
	Profile string
	Region  string
}

// CloudWatch implements Store on top of CloudWatch Logs.
type CloudWatch struct {
	api CloudWatchAPI
	log logr.Logger
}

// NewCloudWatch loads the default AWS configuration chain for the given
// profile and returns a Store backed by it. An empty Region defers to the
// chain (AWS_REGION, shared config) before DefaultRegion.
func NewCloudWatch(ctx context.Context, opts ClientOptions, logger logr.Logger) (*CloudWatch, error) {
	var loaders []func(*awsconfig.LoadOptions) error
	if region := strings.TrimSpace(opts.Region); region != "" {
		loaders = append(loaders, awsconfig.WithRegion(region))
	}
	if profile := strings.TrimSpace(opts.Profile); profile != "" {
		loaders = append(loaders, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	logger.V(1).Info("aws config loaded", "region", cfg.Region, "profile", opts.Profile)
	return NewCloudWatchFromAPI(cloudwatchlogs.NewFromConfig(cfg), logger), nil
}

// NewCloudWatchFromAPI wraps an existing client.
func NewCloudWatchFromAPI(api CloudWatchAPI, logger logr.Logger) *CloudWatch {
	return &CloudWatch{api: api, log: logger.WithName("cloudwatch")}
}

// FetchPage issues one FilterLogEvents call.
func (c *CloudWatch) FetchPage(ctx context.Context, req PageRequest) (PageResponse, error) {
	input := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName: aws.String(req.Group),
		StartTime:    req.Start,
		EndTime:      req.End,
		NextToken:    NormalizeToken(req.Continuation),
	}
	if req.Pattern != "" {
		input.FilterPattern = aws.String(req.Pattern)
	}
	if req.PageSize > 0 {
		size := req.PageSize
		if size > MaxPageSize {
			size = MaxPageSize
		}
		input.Limit = aws.Int32(size)
	}
	out, err := c.api.FilterLogEvents(ctx, input)
	if err != nil {
		return PageResponse{}, err
	}
	events := make([]LogEvent, 0, len(out.Events))
	for _, ev := range out.Events {
		events = append(events, fromFilteredEvent(ev))
	}
	c.log.V(2).Info("page fetched", "group", req.Group, "events", len(events), "more", out.NextToken != nil)
	return PageResponse{Events: events, NextToken: NormalizeToken(out.NextToken)}, nil
}

// ListGroupPage issues one DescribeLogGroups call.
func (c *CloudWatch) ListGroupPage(ctx context.Context, prefix string, token *string) (GroupPage, error) {
	input := &cloudwatchlogs.DescribeLogGroupsInput{NextToken: NormalizeToken(token)}
	if prefix != "" {
		input.LogGroupNamePrefix = aws.String(prefix)
	}
	out, err := c.api.DescribeLogGroups(ctx, input)
	if err != nil {
		return GroupPage{}, err
	}
	groups := make([]GroupInfo, 0, len(out.LogGroups))
	for _, g := range out.LogGroups {
		if g.LogGroupName == nil {
			continue
		}
		groups = append(groups, GroupInfo{
			Name:          aws.ToString(g.LogGroupName),
			CreationTime:  g.CreationTime,
			RetentionDays: g.RetentionInDays,
			StoredBytes:   g.StoredBytes,
		})
	}
	return GroupPage{Groups: groups, NextToken: NormalizeToken(out.NextToken)}, nil
}

func fromFilteredEvent(ev types.FilteredLogEvent) LogEvent {
	return LogEvent{
		Timestamp:     ev.Timestamp,
		StreamID:      aws.ToString(ev.LogStreamName),
		Message:       ev.Message,
		EventID:       aws.ToString(ev.EventId),
		IngestionTime: ev.IngestionTime,
	}
}
