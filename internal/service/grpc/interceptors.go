package grpcsvc

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/greenlogist/internal/api"
	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
	"github.com/vladislavdragonenkov/greenlogist/internal/service/auth"
)

const (
	authorizationHeader  = "authorization"
	idempotencyKeyHeader = "idempotency-key"
	// ErrorCodeTrailer содержит доменный код ошибки (например, InsufficientStock).
	ErrorCodeTrailer = "x-error-code"
)

// TokenParser проверяет bearer-токен.
type TokenParser interface {
	ParseToken(raw string) (auth.Identity, error)
}

type identityKey struct{}

// ContextWithIdentity кладёт проверенного вызывающего в контекст.
func ContextWithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext возвращает вызывающего, если запрос прошёл аутентификацию.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(auth.Identity)
	return identity, ok
}

// AuthInterceptor требует bearer-токен для методов MarketplaceService.
// Health и reflection проходят без токена.
func AuthInterceptor(tokens TokenParser) grpc.UnaryServerInterceptor {
	prefix := "/" + ServiceName + "/"
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return handler(ctx, req)
		}
		raw := bearerToken(ctx)
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "authorization metadata with bearer token is required")
		}
		identity, err := tokens.ParseToken(raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		return handler(ContextWithIdentity(ctx, identity), req)
	}
}

// ErrorInterceptor переводит доменные ошибки в gRPC-статусы и пишет лог запроса.
func ErrorInterceptor(logger *log.Entry) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = log.WithField("component", "grpc")
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := log.Fields{
			"method":      info.FullMethod,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if err == nil {
			logger.WithFields(fields).Debug("grpc request served")
			return resp, nil
		}

		if _, ok := status.FromError(err); ok {
			logger.WithFields(fields).WithError(err).Info("grpc request rejected")
			return nil, err
		}

		st := toStatus(err)
		_, code := domain.Describe(err)
		_ = grpc.SetTrailer(ctx, metadata.Pairs(ErrorCodeTrailer, code))
		fields["code"] = code
		if st.Code() == codes.Internal {
			logger.WithFields(fields).WithError(err).Error("grpc request failed")
		} else {
			logger.WithFields(fields).WithError(err).Info("grpc request rejected")
		}
		return nil, st.Err()
	}
}

func toStatus(err error) *status.Status {
	if errors.Is(err, context.Canceled) {
		return status.New(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.New(codes.DeadlineExceeded, err.Error())
	}
	return status.New(api.GRPCCode(err), api.NewErrorResponse(err).Message)
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, value := range md.Get(authorizationHeader) {
		value = strings.TrimSpace(value)
		if len(value) > len("bearer ") && strings.EqualFold(value[:len("bearer ")], "bearer ") {
			return strings.TrimSpace(value[len("bearer "):])
		}
	}
	return ""
}

func idempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(idempotencyKeyHeader)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
