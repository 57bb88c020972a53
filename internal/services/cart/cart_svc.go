package cart

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storebidgo/internal/services/catalog"
)

const cartKeyPrefix = "cart:"

var (
	ErrInvalidQuantity    = errors.New("quantity must not be negative")
	ErrProductUnavailable = errors.New("product is not available")
)

type CartLine struct {
	ProductID string  `json:"product_id"`
	NameTH    string  `json:"name_th"`
	NameEN    string  `json:"name_en"`
	ImageURL  string  `json:"image_url,omitempty"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

type CartDTO struct {
	Lines    []CartLine `json:"lines"`
	Subtotal float64    `json:"subtotal"`
}

type ICartService interface {
	Get(ctx context.Context, userID string) (*CartDTO, error)
	// Items returns the raw productID -> quantity map, used by checkout.
	Items(ctx context.Context, userID string) (map[string]int, error)
	SetItem(ctx context.Context, userID, productID string, quantity int) error
	Clear(ctx context.Context, userID string) error
}

type cartService struct {
	rdc     *redis.Client
	catalog catalog.ICatalogService
	ttl     time.Duration
}

func NewCartService(rdc *redis.Client, catalogSvc catalog.ICatalogService, ttl time.Duration) ICartService {
	return &cartService{rdc: rdc, catalog: catalogSvc, ttl: ttl}
}

func cartKey(userID string) string { return cartKeyPrefix + userID }

func (svc *cartService) Items(ctx context.Context, userID string) (map[string]int, error) {
	raw, err := svc.rdc.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	items := make(map[string]int, len(raw))
	for productID, qty := range raw {
		n, err := strconv.Atoi(qty)
		if err != nil || n <= 0 {
			continue
		}
		items[productID] = n
	}
	return items, nil
}

func (svc *cartService) Get(ctx context.Context, userID string) (*CartDTO, error) {
	items, err := svc.Items(ctx, userID)
	if err != nil {
		return nil, err
	}

	dto := &CartDTO{Lines: make([]CartLine, 0, len(items))}
	for productID, qty := range items {
		p, err := svc.catalog.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				// Product vanished from the catalog after it was carted.
				zap.L().Debug("cart_stale_line", zap.String("product_id", productID))
				continue
			}
			return nil, err
		}
		line := CartLine{
			ProductID: productID,
			NameTH:    p.NameTH,
			NameEN:    p.NameEN,
			ImageURL:  p.ImageURL,
			UnitPrice: p.Price,
			Quantity:  qty,
			LineTotal: p.Price * float64(qty),
		}
		dto.Lines = append(dto.Lines, line)
		dto.Subtotal += line.LineTotal
	}
	return dto, nil
}

func (svc *cartService) SetItem(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return svc.rdc.HDel(ctx, cartKey(userID), productID).Err()
	}

	p, err := svc.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if !p.Active {
		return ErrProductUnavailable
	}

	if err := svc.rdc.HSet(ctx, cartKey(userID), productID, quantity).Err(); err != nil {
		return err
	}
	return svc.rdc.Expire(ctx, cartKey(userID), svc.ttl).Err()
}

func (svc *cartService) Clear(ctx context.Context, userID string) error {
	return svc.rdc.Del(ctx, cartKey(userID)).Err()
}
