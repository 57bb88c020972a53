package content

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("content not found")

type BannerDTO struct {
	ID        string `json:"id"`
	ImageURL  string `json:"image_url"`
	LinkURL   string `json:"link_url,omitempty"`
	CaptionTH string `json:"caption_th,omitempty"`
	CaptionEN string `json:"caption_en,omitempty"`
	SortOrder int    `json:"sort_order"`
	Active    bool   `json:"active"`
}

type FaqDTO struct {
	ID         string `json:"id"`
	QuestionTH string `json:"question_th"`
	QuestionEN string `json:"question_en"`
	AnswerTH   string `json:"answer_th,omitempty"`
	AnswerEN   string `json:"answer_en,omitempty"`
	SortOrder  int    `json:"sort_order"`
}

type IContentService interface {
	ListBanners(ctx context.Context, activeOnly bool) ([]BannerDTO, error)
	CreateBanner(ctx context.Context, in BannerDTO) (*BannerDTO, error)
	DeleteBanner(ctx context.Context, id string) error
	ListFaqs(ctx context.Context) ([]FaqDTO, error)
	CreateFaq(ctx context.Context, in FaqDTO) (*FaqDTO, error)
	DeleteFaq(ctx context.Context, id string) error
}

type contentService struct {
	db *sql.DB
}

func NewContentService(db *sql.DB) IContentService {
	return &contentService{db: db}
}

func (svc *contentService) ListBanners(ctx context.Context, activeOnly bool) ([]BannerDTO, error) {
	q := `SELECT id, image_url, link_url, caption_th, caption_en, sort_order, active FROM banners`
	if activeOnly {
		q += ` WHERE active`
	}
	rows, err := svc.db.QueryContext(ctx, q+` ORDER BY sort_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]BannerDTO, 0, 8)
	for rows.Next() {
		var b BannerDTO
		if err := rows.Scan(&b.ID, &b.ImageURL, &b.LinkURL, &b.CaptionTH, &b.CaptionEN,
			&b.SortOrder, &b.Active); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func (svc *contentService) CreateBanner(ctx context.Context, in BannerDTO) (*BannerDTO, error) {
	in.ID = uuid.NewString()
	_, err := svc.db.ExecContext(ctx,
		`INSERT INTO banners (id, image_url, link_url, caption_th, caption_en, sort_order, active)
		      VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		in.ID, in.ImageURL, in.LinkURL, in.CaptionTH, in.CaptionEN, in.SortOrder, in.Active)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (svc *contentService) DeleteBanner(ctx context.Context, id string) error {
	res, err := svc.db.ExecContext(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (svc *contentService) ListFaqs(ctx context.Context) ([]FaqDTO, error) {
	rows, err := svc.db.QueryContext(ctx,
		`SELECT id, question_th, question_en, answer_th, answer_en, sort_order
		   FROM faqs ORDER BY sort_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]FaqDTO, 0, 8)
	for rows.Next() {
		var f FaqDTO
		if err := rows.Scan(&f.ID, &f.QuestionTH, &f.QuestionEN, &f.AnswerTH, &f.AnswerEN,
			&f.SortOrder); err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

func (svc *contentService) CreateFaq(ctx context.Context, in FaqDTO) (*FaqDTO, error) {
	in.ID = uuid.NewString()
	_, err := svc.db.ExecContext(ctx,
		`INSERT INTO faqs (id, question_th, question_en, answer_th, answer_en, sort_order)
		      VALUES ($1, $2, $3, $4, $5, $6)`,
		in.ID, in.QuestionTH, in.QuestionEN, in.AnswerTH, in.AnswerEN, in.SortOrder)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (svc *contentService) DeleteFaq(ctx context.Context, id string) error {
	res, err := svc.db.ExecContext(ctx, `DELETE FROM faqs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
