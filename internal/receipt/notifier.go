package receipt

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
)

const notificationTemplate = `<html>
<body>
    <h2>📧 Receipt Processing Notification</h2>
    <p><strong>Receipt ID:</strong> {{.ID}}</p>
    <p><strong>Vendor:</strong> {{.Vendor}}</p>
    <p><strong>Date:</strong> {{.Date}}</p>
    <p><strong>Total Amount:</strong> ${{.Total}}</p>
    <p><strong>S3 Location:</strong> {{.SourceReference}}</p>

    <h3>📋 Items:</h3>
    <ul>
{{- range .Items}}
        <li>{{.Name}} - ${{.Price}} x {{.Quantity}}</li>
{{- else}}
        <li>No items detected</li>
{{- end}}
    </ul>

    <p>✅ The receipt has been processed and stored.</p>
</body>
</html>
`

var notificationTmpl = template.Must(template.New("notification").Parse(notificationTemplate))

// Message is a rendered email
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Mailer defines the interface for email delivery
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier emails a summary of each processed receipt
type Notifier struct {
	mailer     Mailer
	sender     string
	recipients []string
}

// NewNotifier creates a new Notifier sending from sender to recipients
func NewNotifier(mailer Mailer, sender string, recipients []string) *Notifier {
	return &Notifier{
		mailer:     mailer,
		sender:     sender,
		recipients: recipients,
	}
}

// Notify renders the record and sends one email
func (n *Notifier) Notify(ctx context.Context, record *Record) error {
	msg, err := n.render(record)
	if err != nil {
		return err
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	slog.Info("Email notification sent", "receipt_id", record.ID, "to", n.recipients)
	return nil
}

func (n *Notifier) render(record *Record) (Message, error) {
	view := *record
	view.Items = make([]LineItem, 0, len(record.Items))
	for _, li := range record.Items {
		view.Items = append(view.Items, LineItem{
			Name:     valueOr(li.Name, DefaultItemName),
			Price:    valueOr(li.Price, "N/A"),
			Quantity: valueOr(li.Quantity, DefaultQuantity),
		})
	}

	var body bytes.Buffer
	if err := notificationTmpl.Execute(&body, view); err != nil {
		return Message{}, fmt.Errorf("executing email template: %w", err)
	}

	return Message{
		From:    n.sender,
		To:      n.recipients,
		Subject: fmt.Sprintf("Receipt Processed: %s - $%s", record.Vendor, record.Total),
		HTML:    body.String(),
	}, nil
}
