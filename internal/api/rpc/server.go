package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
	"github.com/KevinKickass/OpenRegMap/internal/regmap"
	"github.com/KevinKickass/OpenRegMap/internal/render"
)

// LayoutService packs fields statelessly, like POST /api/v1/mappings.
type LayoutService struct {
	bank     regmap.Bank
	strategy regmap.Strategy
	logger   *zap.Logger
}

func NewLayoutService(bank regmap.Bank, strategy regmap.Strategy, logger *zap.Logger) *LayoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayoutService{bank: bank, strategy: strategy, logger: logger}
}

type mapRequest struct {
	Fields   []regmap.Field `json:"fields"`
	Strategy string         `json:"strategy"`
	Bank     *regmap.Bank   `json:"bank"`
}

// MapFields takes {"fields": [...], "strategy": "...", "bank": {...}} and
// returns the report document.
func (s *LayoutService) MapFields(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req mapRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	strategy := s.strategy
	if req.Strategy != "" {
		strategy = regmap.StrategyName(req.Strategy)
	}

	bank := s.bank
	if req.Bank != nil {
		bank = *req.Bank
	}

	mapper := regmap.NewMapper(bank, s.logger)
	mappings, err := mapper.Map(req.Fields, strategy)
	if err != nil {
		if kind := regmap.ErrorKind(err); kind != "" {
			return nil, status.Errorf(codes.InvalidArgument, "%s: %v", kind, err)
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	out, err := toStruct(render.NewDocument(mapper.GenerateReport(mappings)))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ListDataTypes returns {"datatypes": [...], "count": n}.
func (s *LayoutService) ListDataTypes(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	catalog := datatypes.Catalog()
	out, err := toStruct(map[string]any{
		"datatypes": catalog,
		"count":     len(catalog),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// fromStruct decodes a Struct into v through its JSON form.
func fromStruct(in *structpb.Struct, v any) error {
	b, err := json.Marshal(in.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to convert response: %w", err)
	}
	return structpb.NewStruct(m)
}

// NewServer builds a gRPC server carrying the layout service and the
// standard health service.
func NewServer(svc LayoutServiceServer) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer()
	RegisterLayoutServiceServer(srv, svc)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv, hs
}
