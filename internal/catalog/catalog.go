package catalog

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arfanana/smart-internship-engine/internal/domain"
	"github.com/arfanana/smart-internship-engine/internal/logger"
)

const (
	defaultUserAgent = "internship-engine"

	StudentsPath    = "/admin/students/"
	InternshipsPath = "/admin/internships/"
	EmployersPath   = "/admin/employers/"
)

// Client reads entity snapshots from the admin API that owns them.
type Client struct {
	// ctx used only for http requests right now
	ctx        context.Context
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

func New(ctx context.Context, log *zap.Logger, baseURL, token string) *Client {
	return &Client{
		ctx:     ctx,
		token:   token,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger.OrNop(log),
		UserAgent: defaultUserAgent,
	}
}

func (c *Client) Students() ([]domain.Student, error) {
	var students []domain.Student
	if err := c.list(StudentsPath, &students); err != nil {
		return nil, err
	}
	return students, nil
}

func (c *Client) Internships() ([]domain.Internship, error) {
	var internships []domain.Internship
	if err := c.list(InternshipsPath, &internships); err != nil {
		return nil, err
	}
	return internships, nil
}

func (c *Client) Employers() ([]domain.Employer, error) {
	var employers []domain.Employer
	if err := c.list(EmployersPath, &employers); err != nil {
		return nil, err
	}
	return employers, nil
}
