package publish

import "context"

// Preview re-renders a fixed request in simulate mode on every call
type Preview struct {
	publisher *Publisher
	request   Request
}

func NewPreview(publisher *Publisher, request Request) *Preview {
	request.Simulate = true
	return &Preview{publisher: publisher, request: request}
}

func (p *Preview) Title() string {
	return p.request.Title
}

func (p *Preview) Preview(ctx context.Context) (*Result, error) {
	return p.publisher.Publish(ctx, p.request)
}
