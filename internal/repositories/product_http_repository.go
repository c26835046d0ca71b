package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"shopfront/internal/models"

	"github.com/gofiber/fiber/v2"
)

// DefaultProductsAPI is the public products API the demo talks to.
const DefaultProductsAPI = "https://api.escuelajs.co/api/v1"

// HTTPProductRepository talks JSON over HTTP to a /products collection resource.
type HTTPProductRepository struct {
	client  *fiber.Client
	baseURL string
	timeout time.Duration
}

// NewHTTPProductRepository creates a repository for the collection at baseURL + "/products".
func NewHTTPProductRepository(baseURL string, timeout time.Duration) *HTTPProductRepository {
	if baseURL == "" {
		baseURL = DefaultProductsAPI
	}
	return &HTTPProductRepository{
		client:  &fiber.Client{UserAgent: "shopfront"},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

func (r *HTTPProductRepository) collectionURL() string {
	return r.baseURL + "/products"
}

func (r *HTTPProductRepository) itemURL(id int) string {
	return fmt.Sprintf("%s/products/%d", r.baseURL, id)
}

// GetAll reads the whole collection in server order.
func (r *HTTPProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	body, err := r.do(ctx, "fetch products", r.client.Get(r.collectionURL()))
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, &RemoteError{Op: "fetch products", Err: fmt.Errorf("decode response: %w", err)}
	}
	return products, nil
}

// Create posts a new product and returns the server's record, including its id.
func (r *HTTPProductRepository) Create(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	body, err := r.do(ctx, "create product", r.client.Post(r.collectionURL()).JSON(input))
	if err != nil {
		return nil, err
	}
	return decodeProduct("create product", body)
}

// Update sends the fields carried by patch and returns the updated record.
func (r *HTTPProductRepository) Update(ctx context.Context, patch models.ProductPatch) (*models.Product, error) {
	op := fmt.Sprintf("update product %d", patch.ID)
	body, err := r.do(ctx, op, r.client.Put(r.itemURL(patch.ID)).JSON(patch))
	if err != nil {
		return nil, err
	}
	return decodeProduct(op, body)
}

// Delete removes a product. The API answers with a bare boolean.
func (r *HTTPProductRepository) Delete(ctx context.Context, id int) error {
	op := fmt.Sprintf("delete product %d", id)
	body, err := r.do(ctx, op, r.client.Delete(r.itemURL(id)))
	if err != nil {
		return err
	}
	if bytes.Equal(bytes.TrimSpace(body), []byte("false")) {
		return &RemoteError{Op: op, StatusCode: fiber.StatusOK, Message: "server refused deletion"}
	}
	return nil
}

// do sends the request and maps transport errors and non-2xx statuses to *RemoteError.
func (r *HTTPProductRepository) do(ctx context.Context, op string, a *fiber.Agent) ([]byte, error) {
	timeout, err := requestTimeout(ctx, r.timeout)
	if err != nil {
		fiber.ReleaseAgent(a)
		return nil, &RemoteError{Op: op, Err: err}
	}
	if timeout > 0 {
		a.Timeout(timeout)
	}
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, &RemoteError{Op: op, Err: errors.Join(errs...)}
	}
	if code < 200 || code > 299 {
		return nil, &RemoteError{Op: op, StatusCode: code, Message: errorMessage(body)}
	}
	return body, nil
}

// requestTimeout is the configured timeout shortened to the context deadline.
// Zero means no timeout.
func requestTimeout(ctx context.Context, configured time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return configured, nil
	}
	left := time.Until(deadline)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	if configured <= 0 || left < configured {
		return left, nil
	}
	return configured, nil
}

func decodeProduct(op string, body []byte) (*models.Product, error) {
	var p models.Product
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &RemoteError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &p, nil
}

const maxErrorMessage = 200

// errorMessage pulls "message" out of a JSON error body, which the API sends
// either as a string or as a list of strings.
func errorMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Message) > 0 {
		var single string
		if json.Unmarshal(payload.Message, &single) == nil {
			return single
		}
		var list []string
		if json.Unmarshal(payload.Message, &list) == nil {
			return strings.Join(list, "; ")
		}
	}
	msg := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(msg) > maxErrorMessage {
		msg = string([]rune(msg)[:maxErrorMessage])
	}
	return msg
}
