package web

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"

	"github.com/formflow/go-formflow/tool"
	"github.com/gin-gonic/gin"
)

// statusFor maps a result record to an HTTP status.
func statusFor(r tool.Result) int {
	if r.OK() {
		return http.StatusOK
	}
	switch r.ErrorType {
	case tool.ErrorTypeValidation:
		return http.StatusBadRequest
	case tool.ErrorTypeNotFound:
		return http.StatusNotFound
	case tool.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) invoke(c *gin.Context, op tool.Operation, args json.RawMessage) {
	result := s.tools.Invoke(sessionFrom(c), op, args)
	c.JSON(statusFor(result), result)
}

func (s *Server) listForms(c *gin.Context) {
	args, _ := json.Marshal(tool.ListFormsArgs{NameFilter: c.Query("name")})
	s.invoke(c, tool.OpListForms, args)
}

func (s *Server) createForm(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"result": "error", "message": "unreadable body"})
		return
	}
	s.invoke(c, tool.OpCreateForm, body)
}

func (s *Server) getForm(c *gin.Context) {
	args, _ := json.Marshal(tool.FormIDArgs{FormID: c.Param("id")})
	s.invoke(c, tool.OpGetFormInfo, args)
}

func (s *Server) deleteForm(c *gin.Context) {
	args, _ := json.Marshal(tool.FormIDArgs{FormID: c.Param("id")})
	s.invoke(c, tool.OpDeleteForm, args)
}

func (s *Server) getResponses(c *gin.Context) {
	args, _ := json.Marshal(tool.FormIDArgs{FormID: c.Param("id")})
	s.invoke(c, tool.OpGetResponses, args)
}

// questionAnalytics is the aggregated answer distribution for one question.
type questionAnalytics struct {
	QuestionID string         `json:"question_id"`
	Title      string         `json:"title"`
	Counts     map[string]int `json:"counts"`
	Total      int            `json:"total"`
}

// getAnalytics turns the raw response listing into per-question answer
// counts. It works on the wrapper's JSON result so the aggregation sees
// exactly what an API consumer would.
func (s *Server) getAnalytics(c *gin.Context) {
	args, _ := json.Marshal(tool.FormIDArgs{FormID: c.Param("id")})
	result := s.tools.Invoke(sessionFrom(c), tool.OpGetResponses, args)
	if !result.OK() {
		c.JSON(statusFor(result), result)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":         "success",
		"form_id":        c.Param("id"),
		"response_count": result.Fields["response_count"],
		"questions":      aggregate(result.Fields),
	})
}

// aggregate counts answer values per question across all responses.
func aggregate(fields map[string]any) []questionAnalytics {
	titles, _ := fields["questions"].(map[string]any)
	responses, _ := fields["responses"].([]any)

	counts := map[string]map[string]int{}
	for _, r := range responses {
		response, ok := r.(map[string]any)
		if !ok {
			continue
		}
		answers, _ := response["answers"].(map[string]any)
		for questionID, values := range answers {
			list, ok := values.([]any)
			if !ok {
				continue
			}
			if counts[questionID] == nil {
				counts[questionID] = map[string]int{}
			}
			for _, v := range list {
				if value, ok := v.(string); ok {
					counts[questionID][value]++
				}
			}
		}
	}

	out := []questionAnalytics{}
	for questionID, title := range titles {
		qa := questionAnalytics{
			QuestionID: questionID,
			Counts:     counts[questionID],
		}
		if t, ok := title.(string); ok {
			qa.Title = t
		}
		for _, n := range qa.Counts {
			qa.Total += n
		}
		out = append(out, qa)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"result": "error", "message": "message is required"})
		return
	}
	result := s.runner.Run(c.Request.Context(), sessionFrom(c), req.Message)
	c.JSON(statusFor(result), result)
}
