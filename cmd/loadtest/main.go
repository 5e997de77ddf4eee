// Команда loadtest создаёт нагрузку на gRPC API маркетплейса: размещает заказы
// одного товара параллельными воркерами и печатает сводку по латентности и кодам ошибок.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/greenlogist/internal/api"
	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
	grpcsvc "github.com/vladislavdragonenkov/greenlogist/internal/service/grpc"
)

const (
	authorizationHeader = "authorization"
	idempotencyHeader   = "idempotency-key"
	codeOK              = "OK"
)

type loadMode string

const (
	modePlace     loadMode = "place"
	modePlaceRead loadMode = "place-read"
	modePlacePaid loadMode = "place-paid"
)

type config struct {
	addr          string
	total         int
	totalSet      bool
	duration      time.Duration
	concurrency   int
	connections   int
	timeout       time.Duration
	mode          loadMode
	consumerToken string
	producerToken string
	consumerID    string
	producerID    string
	productID     string
	quantity      domain.Quantity
	price         domain.Price
	outputPath    string
}

func (c config) placeRequest() *api.PlaceOrderRequest {
	return &api.PlaceOrderRequest{
		ConsumerID: c.consumerID,
		ProducerID: c.producerID,
		Items: []api.OrderLineRequest{{
			ProductID: c.productID,
			Quantity:  c.quantity,
			UnitPrice: c.price,
		}},
	}
}

// marketplace — часть клиента MarketplaceService, которую использует нагрузка.
type marketplace interface {
	PlaceOrder(ctx context.Context, in *api.PlaceOrderRequest, opts ...grpc.CallOption) (*api.PlaceOrderResponse, error)
	GetOrder(ctx context.Context, in *api.GetOrderRequest, opts ...grpc.CallOption) (*api.OrderResponse, error)
	UpdateOrderStatus(ctx context.Context, in *api.UpdateOrderStatusRequest, opts ...grpc.CallOption) (*api.OrderResponse, error)
}

// outcome — результат вызова: OK, доменный код из трейлера или код gRPC.
type outcome struct {
	Code string
}

// rejectionCodes — штатные отказы под нагрузкой: товар закончился.
var rejectionCodes = map[string]struct{}{
	"InsufficientStock": {},
}

func (o outcome) ok() bool {
	return o.Code == codeOK
}

func (o outcome) rejected() bool {
	_, ok := rejectionCodes[o.Code]
	return ok
}

func outcomeOf(err error, trailer metadata.MD) outcome {
	if err == nil {
		return outcome{Code: codeOK}
	}
	if values := trailer.Get(grpcsvc.ErrorCodeTrailer); len(values) > 0 && strings.TrimSpace(values[0]) != "" {
		return outcome{Code: strings.TrimSpace(values[0])}
	}
	return outcome{Code: status.Code(err).String()}
}

func parseConfig(args []string, stderr io.Writer) (config, error) {
	var (
		cfg           config
		modeValue     string
		timeoutValue  string
		durationValue string
		quantityValue string
		unit          string
		priceValue    string
		currency      string
	)

	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.addr, "addr", "localhost:50051", "gRPC target address")
	fs.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	fs.StringVar(&durationValue, "duration", "0s", "optional time-based run duration (e.g. 10m, 15m)")
	fs.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	fs.IntVar(&cfg.connections, "connections", 20, "number of gRPC client connections")
	fs.StringVar(&timeoutValue, "timeout", "5s", "per-RPC timeout")
	fs.StringVar(&modeValue, "mode", string(modePlace), "load mode: place | place-read | place-paid")
	fs.StringVar(&cfg.consumerToken, "token", os.Getenv("GREENLOGIST_LOADTEST_TOKEN"), "consumer bearer token")
	fs.StringVar(&cfg.producerToken, "producer-token", os.Getenv("GREENLOGIST_LOADTEST_PRODUCER_TOKEN"), "producer bearer token, required for place-paid")
	fs.StringVar(&cfg.consumerID, "consumer-id", "", "consumer user id (token subject)")
	fs.StringVar(&cfg.producerID, "producer-id", "", "producer user id")
	fs.StringVar(&cfg.productID, "product-id", "", "product to order")
	fs.StringVar(&quantityValue, "quantity", "1", "quantity per order")
	fs.StringVar(&unit, "unit", domain.UnitKilogram, "unit of measure of the product")
	fs.StringVar(&priceValue, "price", "", "current unit price of the product")
	fs.StringVar(&currency, "currency", "USD", "price currency")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	timeout, err := time.ParseDuration(strings.TrimSpace(timeoutValue))
	if err != nil {
		return cfg, fmt.Errorf("parse timeout: %w", err)
	}
	cfg.timeout = timeout

	duration, err := time.ParseDuration(strings.TrimSpace(durationValue))
	if err != nil {
		return cfg, fmt.Errorf("parse duration: %w", err)
	}
	cfg.duration = duration

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	if cfg.mode, err = parseMode(modeValue); err != nil {
		return cfg, err
	}

	qty, err := decimal.NewFromString(strings.TrimSpace(quantityValue))
	if err != nil {
		return cfg, fmt.Errorf("parse quantity: %w", err)
	}
	if !qty.IsPositive() {
		return cfg, errors.New("quantity must be > 0")
	}
	if cfg.quantity, err = domain.NewQuantity(qty, unit); err != nil {
		return cfg, fmt.Errorf("quantity: %w", err)
	}
	if strings.TrimSpace(priceValue) == "" {
		return cfg, errors.New("price is required")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(priceValue))
	if err != nil {
		return cfg, fmt.Errorf("parse price: %w", err)
	}
	if cfg.price, err = domain.NewPrice(price, currency); err != nil {
		return cfg, fmt.Errorf("price: %w", err)
	}

	cfg.addr = strings.TrimSpace(cfg.addr)
	cfg.consumerToken = strings.TrimSpace(cfg.consumerToken)
	cfg.producerToken = strings.TrimSpace(cfg.producerToken)
	cfg.consumerID = strings.TrimSpace(cfg.consumerID)
	cfg.producerID = strings.TrimSpace(cfg.producerID)
	cfg.productID = strings.TrimSpace(cfg.productID)

	switch {
	case cfg.addr == "":
		return cfg, errors.New("addr is required")
	case cfg.duration < 0:
		return cfg, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when duration is not set")
	case cfg.duration > 0 && cfg.totalSet && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when explicitly set with duration")
	case cfg.concurrency <= 0:
		return cfg, errors.New("concurrency must be > 0")
	case cfg.connections <= 0:
		return cfg, errors.New("connections must be > 0")
	case cfg.timeout <= 0:
		return cfg, errors.New("timeout must be > 0")
	case cfg.consumerToken == "":
		return cfg, errors.New("token is required")
	case cfg.consumerID == "":
		return cfg, errors.New("consumer-id is required")
	case cfg.producerID == "":
		return cfg, errors.New("producer-id is required")
	case cfg.productID == "":
		return cfg, errors.New("product-id is required")
	case cfg.mode == modePlacePaid && cfg.producerToken == "":
		return cfg, errors.New("producer-token is required for place-paid mode")
	}
	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(strings.TrimSpace(value)); mode {
	case modePlace, modePlaceRead, modePlacePaid:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}

	conns := make([]*grpc.ClientConn, 0, cfg.connections)
	clients := make([]marketplace, 0, cfg.connections)
	for i := 0; i < cfg.connections; i++ {
		conn, dialErr := grpc.NewClient(cfg.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if dialErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to create grpc client connection: %v\n", dialErr)
			os.Exit(1)
		}
		conns = append(conns, conn)
		clients = append(clients, grpcsvc.NewMarketplaceClient(conn))
	}
	defer func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := run(ctx, cfg, clients)
	printReport(os.Stdout, result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}
	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

// run распределяет сценарии по воркерам и ждёт их завершения.
func run(ctx context.Context, cfg config, clients []marketplace) report {
	startedAt := time.Now()
	runID := fmt.Sprintf("%d-%d", startedAt.UnixNano(), os.Getpid())
	col := newCollector()

	jobs := make(chan int, cfg.concurrency*2)
	var wg sync.WaitGroup
	for workerID := 0; workerID < cfg.concurrency; workerID++ {
		wg.Add(1)
		go func(client marketplace) {
			defer wg.Done()
			for id := range jobs {
				_ = runScenario(ctx, client, cfg, id, runID, col)
			}
		}(clients[workerID%len(clients)])
	}

	dispatchJobs(ctx, jobs, cfg)
	wg.Wait()

	return col.buildReport(startedAt, time.Since(startedAt))
}

func dispatchJobs(ctx context.Context, jobs chan<- int, cfg config) {
	defer close(jobs)

	var deadline <-chan time.Time
	if cfg.duration > 0 {
		timer := time.NewTimer(cfg.duration)
		defer timer.Stop()
		deadline = timer.C
	}

	for i := 0; ; i++ {
		if (cfg.duration <= 0 || cfg.totalSet) && i >= cfg.total {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case jobs <- i:
		}
	}
}

// runScenario размещает заказ и, в зависимости от режима, читает его или переводит в paid.
// Отказ по остатку завершает сценарий без ошибки.
func runScenario(ctx context.Context, client marketplace, cfg config, index int, runID string, col *collector) error {
	scenarioStart := time.Now()
	result := outcome{Code: codeOK}
	defer func() {
		col.record(scenarioMethod, time.Since(scenarioStart), result)
	}()

	placeMD := metadata.Pairs(
		authorizationHeader, "Bearer "+cfg.consumerToken,
		idempotencyHeader, fmt.Sprintf("lt-place-%s-%d", runID, index),
	)
	placed, placeResult, err := invoke(ctx, cfg.timeout, col, "PlaceOrder", placeMD,
		func(ctx context.Context, opts ...grpc.CallOption) (*api.PlaceOrderResponse, error) {
			return client.PlaceOrder(ctx, cfg.placeRequest(), opts...)
		})
	if err != nil {
		result = placeResult
		if placeResult.rejected() {
			return nil
		}
		return err
	}
	if placed.OrderID == "" {
		result = outcome{Code: codes.Internal.String()}
		return errors.New("place response returned empty order id")
	}

	switch cfg.mode {
	case modePlaceRead:
		md := metadata.Pairs(authorizationHeader, "Bearer "+cfg.consumerToken)
		order, readResult, err := invoke(ctx, cfg.timeout, col, "GetOrder", md,
			func(ctx context.Context, opts ...grpc.CallOption) (*api.OrderResponse, error) {
				return client.GetOrder(ctx, &api.GetOrderRequest{OrderID: placed.OrderID}, opts...)
			})
		if err != nil {
			result = readResult
			return err
		}
		if order.ID != placed.OrderID {
			result = outcome{Code: codes.Internal.String()}
			return fmt.Errorf("read order %s, got %s", placed.OrderID, order.ID)
		}
	case modePlacePaid:
		md := metadata.Pairs(authorizationHeader, "Bearer "+cfg.producerToken)
		_, payResult, err := invoke(ctx, cfg.timeout, col, "UpdateOrderStatus", md,
			func(ctx context.Context, opts ...grpc.CallOption) (*api.OrderResponse, error) {
				return client.UpdateOrderStatus(ctx, &api.UpdateOrderStatusRequest{
					OrderID:    placed.OrderID,
					ProducerID: cfg.producerID,
					Status:     string(domain.OrderStatusPaid),
				}, opts...)
			})
		if err != nil {
			result = payResult
			return err
		}
	}
	return nil
}

// invoke выполняет один RPC с таймаутом и записывает результат вместе с доменным кодом из трейлера.
func invoke[T any](
	parent context.Context,
	timeout time.Duration,
	col *collector,
	method string,
	md metadata.MD,
	fn func(context.Context, ...grpc.CallOption) (*T, error),
) (*T, outcome, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	ctx = metadata.NewOutgoingContext(ctx, md)

	var trailer metadata.MD
	resp, err := fn(ctx, grpc.Trailer(&trailer))
	result := outcomeOf(err, trailer)
	col.record(method, time.Since(start), result)
	return resp, result, err
}
