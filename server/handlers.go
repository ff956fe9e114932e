package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/poiesic/newsdesk/core"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type analyzeRequest struct {
	URL   string `json:"url"`
	Text  string `json:"text"`
	Title string `json:"title"`
}

type analyzeResponse struct {
	Status    string  `json:"status"`
	ArticleID core.ID `json:"article_id"`
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type articleResponse struct {
	ID             core.ID   `json:"id"`
	Title          string    `json:"title"`
	Tone           string    `json:"tone"`
	SentimentScore float64   `json:"sentiment_score"`
	Keywords       []string  `json:"keywords"`
	Topics         []string  `json:"topics"`
	People         []string  `json:"people"`
	Organizations  []string  `json:"organizations"`
	Locations      []string  `json:"locations"`
	CreatedAt      time.Time `json:"created_at"`
}

func newArticleResponse(a *core.Article) articleResponse {
	return articleResponse{
		ID:             a.Id,
		Title:          a.Title,
		Tone:           a.Tone,
		SentimentScore: a.SentimentScore,
		Keywords:       a.Keywords,
		Topics:         a.Topics,
		People:         a.People,
		Organizations:  a.Organizations,
		Locations:      a.Locations,
		CreatedAt:      a.CreatedAt,
	}
}

func (s *Server) healthz(c echo.Context) error {
	if err := s.service.Ping(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.String(http.StatusOK, "ok")
}

func (s *Server) analyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	source := core.Source{URL: strings.TrimSpace(req.URL), Text: req.Text}
	ack, err := s.service.Ingest(c.Request().Context(), req.Title, source)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, analyzeResponse{Status: "success", ArticleID: ack.ArticleID})
}

func (s *Server) ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return ErrEmptyQuestion
	}

	trace := s.service.Ask(c.Request().Context(), req.Question)
	return c.JSON(http.StatusOK, askResponse{Answer: trace.Answer})
}

func (s *Server) listArticles(c echo.Context) error {
	limit := DefaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return ErrInvalidLimit
		}
		limit = n
	}

	articles, err := s.service.Articles(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	out := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, newArticleResponse(a))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getArticle(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}

	article, err := s.service.Article(c.Request().Context(), core.ID(id))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newArticleResponse(article))
}
