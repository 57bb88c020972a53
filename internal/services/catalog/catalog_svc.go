package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrSupplierNotFound = errors.New("supplier not found")
	ErrInvalidPrice     = errors.New("price must not be negative")
)

type ProductDTO struct {
	ID            string    `json:"id"`
	SupplierID    string    `json:"supplier_id,omitempty"`
	NameTH        string    `json:"name_th"`
	NameEN        string    `json:"name_en"`
	DescriptionTH string    `json:"description_th,omitempty"`
	DescriptionEN string    `json:"description_en,omitempty"`
	Price         float64   `json:"price"`
	Stock         int       `json:"stock"`
	ImageURL      string    `json:"image_url,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

type ProductInput struct {
	SupplierID    string
	NameTH        string
	NameEN        string
	DescriptionTH string
	DescriptionEN string
	Price         float64
	Stock         int
	ImageURL      string
	Active        bool
}

type SupplierDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
}

type ICatalogService interface {
	ListProducts(ctx context.Context, query string, limit, offset int) ([]ProductDTO, error)
	GetProduct(ctx context.Context, id string) (*ProductDTO, error)
	CreateProduct(ctx context.Context, in ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id string) error
	ListSuppliers(ctx context.Context) ([]SupplierDTO, error)
	CreateSupplier(ctx context.Context, name, contact string) (*SupplierDTO, error)
	DeleteSupplier(ctx context.Context, id string) error
}

type catalogService struct {
	db *sql.DB
}

func NewCatalogService(db *sql.DB) ICatalogService {
	return &catalogService{db: db}
}

const productCols = `id, coalesce(supplier_id, ''), name_th, name_en,
       description_th, description_en, price, stock, image_url, active, created_at`

func scanProduct(row interface{ Scan(...any) error }) (*ProductDTO, error) {
	p := &ProductDTO{}
	err := row.Scan(&p.ID, &p.SupplierID, &p.NameTH, &p.NameEN,
		&p.DescriptionTH, &p.DescriptionEN, &p.Price, &p.Stock,
		&p.ImageURL, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (svc *catalogService) ListProducts(ctx context.Context, query string, limit, offset int) ([]ProductDTO, error) {
	if limit <= 0 {
		limit = 20
	}

	var (
		rows *sql.Rows
		err  error
	)
	base := `SELECT ` + productCols + ` FROM products WHERE active`
	if query != "" {
		// Free text matches either language.
		rows, err = svc.db.QueryContext(ctx,
			base+` AND (name_th ILIKE '%' || $1 || '%' OR name_en ILIKE '%' || $1 || '%')
			 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			query, limit, offset)
	} else {
		rows, err = svc.db.QueryContext(ctx,
			base+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]ProductDTO, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func (svc *catalogService) GetProduct(ctx context.Context, id string) (*ProductDTO, error) {
	p, err := scanProduct(svc.db.QueryRowContext(ctx,
		`SELECT `+productCols+` FROM products WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (svc *catalogService) CreateProduct(ctx context.Context, in ProductInput) (*ProductDTO, error) {
	if in.Price < 0 {
		return nil, ErrInvalidPrice
	}
	id := uuid.NewString()
	var supplier any
	if in.SupplierID != "" {
		supplier = in.SupplierID
	}
	_, err := svc.db.ExecContext(ctx,
		`INSERT INTO products (id, supplier_id, name_th, name_en,
		                       description_th, description_en, price, stock, image_url, active)
		      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, supplier, in.NameTH, in.NameEN,
		in.DescriptionTH, in.DescriptionEN, in.Price, in.Stock, in.ImageURL, in.Active)
	if err != nil {
		return nil, err
	}
	return svc.GetProduct(ctx, id)
}

func (svc *catalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*ProductDTO, error) {
	if in.Price < 0 {
		return nil, ErrInvalidPrice
	}
	var supplier any
	if in.SupplierID != "" {
		supplier = in.SupplierID
	}
	res, err := svc.db.ExecContext(ctx,
		`UPDATE products
		    SET supplier_id = $2, name_th = $3, name_en = $4,
		        description_th = $5, description_en = $6,
		        price = $7, stock = $8, image_url = $9, active = $10
		  WHERE id = $1`,
		id, supplier, in.NameTH, in.NameEN,
		in.DescriptionTH, in.DescriptionEN, in.Price, in.Stock, in.ImageURL, in.Active)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrProductNotFound
	}
	return svc.GetProduct(ctx, id)
}

func (svc *catalogService) DeleteProduct(ctx context.Context, id string) error {
	res, err := svc.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (svc *catalogService) ListSuppliers(ctx context.Context) ([]SupplierDTO, error) {
	rows, err := svc.db.QueryContext(ctx,
		`SELECT id, name, contact FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]SupplierDTO, 0, 8)
	for rows.Next() {
		var s SupplierDTO
		if err := rows.Scan(&s.ID, &s.Name, &s.Contact); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (svc *catalogService) CreateSupplier(ctx context.Context, name, contact string) (*SupplierDTO, error) {
	s := &SupplierDTO{ID: uuid.NewString(), Name: name, Contact: contact}
	_, err := svc.db.ExecContext(ctx,
		`INSERT INTO suppliers (id, name, contact) VALUES ($1, $2, $3)`,
		s.ID, s.Name, s.Contact)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (svc *catalogService) DeleteSupplier(ctx context.Context, id string) error {
	res, err := svc.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSupplierNotFound
	}
	return nil
}
