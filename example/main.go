// Library walkthrough: build a graded quiz, read it back, and fetch its
// responses using the client directly.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/formflow/go-formflow"
	"github.com/formflow/go-formflow/client"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/forms/v1"
	"google.golang.org/api/option"
)

func newClient() *client.Client {
	ctx := context.Background()

	httpClient, err := google.DefaultClient(ctx,
		forms.FormsBodyScope,
		forms.FormsResponsesReadonlyScope,
		drive.DriveScope,
	)
	if err != nil {
		log.Panic(err)
	}

	formsService, err := forms.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		log.Panic(err)
	}
	driveService, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		log.Panic(err)
	}
	return client.New(formsService, driveService)
}

func main() {
	c := newClient()

	// Create a quiz with one graded question.
	created, err := c.CreateForm(formflow.FormSpec{
		Title:       "Science Quiz",
		Description: "Weekly check",
		Type:        formflow.FormTypeQuiz,
		Questions: []formflow.QuestionSpec{
			{
				Type:     "multiple_choice",
				Prompt:   "What is 2+2?",
				Required: true,
				Options:  []string{"3", "4", "5", "6"},
				Grading: &formflow.GradingSpec{
					PointValue:     5,
					CorrectAnswers: []string{"4"},
				},
			},
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Created form %s\nEdit: %s\n", created.Form.ID, created.Form.EditURL)

	// Read it back.
	detail, err := c.GetForm(created.Form.ID)
	if err != nil {
		log.Fatal(err)
	}
	for _, q := range detail.Questions {
		fmt.Printf("  %s [%s] %d points\n", q.Title, q.Type, q.PointValue)
	}

	// Fetch responses (empty until someone answers).
	report, err := c.ListResponses(created.Form.ID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d responses so far\n", len(report.Responses))

	// Share with a collaborator.
	if _, err := c.ShareForm(created.Form.ID, formflow.User("teacher@example.com"), formflow.RoleWriter); err != nil {
		log.Fatal(err)
	}
}
