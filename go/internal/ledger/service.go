package ledger

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

const (
	// ServiceName is the fully-qualified name of the ledger service.
	ServiceName = "ledger.v1.LedgerService"

	ListSubmissionsProcedure = "/" + ServiceName + "/ListSubmissions"
)

// Lister defines what the service layer needs from the repository.
type Lister interface {
	List(ctx context.Context, f Filter) ([]Record, error)
}

// Service exposes the ledger over Connect.
type Service struct {
	lister Lister
}

func NewService(lister Lister) *Service {
	return &Service{lister: lister}
}

func (s *Service) ListSubmissions(ctx context.Context, req *connect.Request[ListSubmissionsRequest]) (*connect.Response[ListSubmissionsResponse], error) {
	records, err := s.lister.List(ctx, req.Msg.Filter)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if records == nil {
		records = []Record{}
	}
	return connect.NewResponse(&ListSubmissionsResponse{Records: records}), nil
}

// NewHandler returns the path and handler to mount on a mux.
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(ListSubmissionsProcedure, connect.NewUnaryHandler(
		ListSubmissionsProcedure,
		svc.ListSubmissions,
		opts...,
	))
	return "/" + ServiceName + "/", mux
}

// Client calls the ledger service.
type Client struct {
	listSubmissions *connect.Client[ListSubmissionsRequest, ListSubmissionsResponse]
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		listSubmissions: connect.NewClient[ListSubmissionsRequest, ListSubmissionsResponse](
			httpClient,
			baseURL+ListSubmissionsProcedure,
			opts...,
		),
	}
}

// ListSubmissions sends header alongside the request; callers use it for the principal.
func (c *Client) ListSubmissions(ctx context.Context, f Filter, header http.Header) ([]Record, error) {
	req := connect.NewRequest(&ListSubmissionsRequest{Filter: f})
	for k, vs := range header {
		for _, v := range vs {
			req.Header().Add(k, v)
		}
	}
	resp, err := c.listSubmissions.CallUnary(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Msg.Records, nil
}
