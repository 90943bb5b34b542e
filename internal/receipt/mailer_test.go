package receipt

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/resend/resend-go/v2"
)

// mockSES is a mock implementation of SESAPI
type mockSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

// mockResend is a mock implementation of ResendAPI
type mockResend struct {
	requests []*resend.SendEmailRequest
	err      error
}

func (m *mockResend) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	m.requests = append(m.requests, params)
	if m.err != nil {
		return nil, m.err
	}
	return &resend.SendEmailResponse{Id: "msg-1"}, nil
}

var testMessage = Message{
	From:    "sender@example.com",
	To:      []string{"me@example.com"},
	Subject: "Receipt Processed: Cafe X - $12.50",
	HTML:    "<p>hi</p>",
}

var _ = Describe("SESMailer", func() {
	var (
		client *mockSES
		mailer *SESMailer
		err    error
	)

	BeforeEach(func() {
		client = &mockSES{}
		mailer = NewSESMailer(client)
	})

	JustBeforeEach(func() {
		err = mailer.Send(context.Background(), testMessage)
	})

	When("sending succeeds", func() {
		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should map the message onto the SES request", func() {
			Expect(client.inputs).To(HaveLen(1))
			in := client.inputs[0]
			Expect(aws.ToString(in.Source)).To(Equal("sender@example.com"))
			Expect(in.Destination.ToAddresses).To(Equal([]string{"me@example.com"}))
			Expect(aws.ToString(in.Message.Subject.Data)).To(Equal("Receipt Processed: Cafe X - $12.50"))
			Expect(aws.ToString(in.Message.Body.Html.Data)).To(Equal("<p>hi</p>"))
			Expect(in.Message.Body.Text).To(BeNil())
		})
	})

	When("SES fails", func() {
		var setupErr error

		BeforeEach(func() {
			setupErr = errors.New("MessageRejected")
			client.err = setupErr
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(setupErr))
		})
	})
})

var _ = Describe("ResendMailer", func() {
	var (
		client *mockResend
		mailer *ResendMailer
		err    error
	)

	BeforeEach(func() {
		client = &mockResend{}
		mailer = NewResendMailerWithClient(client)
	})

	JustBeforeEach(func() {
		err = mailer.Send(context.Background(), testMessage)
	})

	When("sending succeeds", func() {
		It("should map the message onto the Resend request", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(client.requests).To(ConsistOf(&resend.SendEmailRequest{
				From:    "sender@example.com",
				To:      []string{"me@example.com"},
				Subject: "Receipt Processed: Cafe X - $12.50",
				Html:    "<p>hi</p>",
			}))
		})
	})

	When("Resend fails", func() {
		var setupErr error

		BeforeEach(func() {
			setupErr = errors.New("validation_error")
			client.err = setupErr
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(setupErr))
		})
	})
})

var _ = Describe("NewResendMailer", func() {
	It("requires an API key", func() {
		_, err := NewResendMailer("")
		Expect(err).To(HaveOccurred())
	})
})
