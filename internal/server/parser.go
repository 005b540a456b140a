// Package server exposes the receipt parser over gRPC.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
	"github.com/joseph-ayodele/receipts-parser/internal/entity"
)

// DefaultMaxContentBytes caps decoded document size per request.
const DefaultMaxContentBytes = 16 << 20

// Request fields of ParserService/Parse.
const (
	FieldFilename   = "filename"
	FieldContentB64 = "content_b64"
)

// Parser is the behavior the service depends on.
type Parser interface {
	Parse(ctx context.Context, doc entity.Document) entity.ParseOutcome
}

type ParserServer struct {
	UnimplementedParserServiceServer
	parser   Parser
	maxBytes int
	logger   *slog.Logger
}

func NewParserServer(p Parser, logger *slog.Logger) *ParserServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParserServer{parser: p, maxBytes: DefaultMaxContentBytes, logger: logger}
}

// Parse implements ParserServiceServer. Malformed requests are rejected with
// InvalidArgument; anything that reaches the parser returns its outcome, a
// FAILED outcome included.
func (s *ParserServer) Parse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	filename := strings.TrimSpace(fields[FieldFilename].GetStringValue())
	encoded := fields[FieldContentB64].GetStringValue()

	v := common.NewValidator().
		Field(FieldFilename, filename, common.Required).
		Field(FieldContentB64, encoded, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Error("parse request rejected", "error", err)
		return nil, err
	}

	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		s.logger.Error("parse request has bad base64", "filename", filename, "error", err)
		return nil, common.InvalidArgumentErrorf("%s must be standard base64: %v", FieldContentB64, err)
	}
	v = common.NewValidator().Field(FieldContentB64, content, common.MaxBytes(s.maxBytes))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	out := s.parser.Parse(ctx, entity.NewDocument(filename, content))
	s.logger.Info("parse request served",
		"request_id", common.RequestIDFromContext(ctx),
		"filename", filename,
		"status", out.Status,
		"confidence", out.OverallConfidence,
	)

	resp, err := OutcomeToStruct(out)
	if err != nil {
		s.logger.Error("failed to encode outcome", "filename", filename, "error", err)
		return nil, common.InternalError("encode outcome")
	}
	return resp, nil
}

// OutcomeToStruct converts an outcome to a Struct through its JSON form, so
// money amounts travel as decimal strings.
func OutcomeToStruct(out entity.ParseOutcome) (*structpb.Struct, error) {
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// NewParseRequest builds a ParserService/Parse request.
func NewParseRequest(filename string, content []byte) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldFilename:   structpb.NewStringValue(filename),
		FieldContentB64: structpb.NewStringValue(base64.StdEncoding.EncodeToString(content)),
	}}
}
