package email

import (
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{
			name:     "empty config",
			config:   Config{},
			expected: false,
		},
		{
			name: "missing host",
			config: Config{
				Port: "587",
				From: "test@example.com",
			},
			expected: false,
		},
		{
			name: "missing port",
			config: Config{
				Host: "smtp.example.com",
				From: "test@example.com",
			},
			expected: false,
		},
		{
			name: "missing from",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
			},
			expected: false,
		},
		{
			name: "fully configured",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
				From: "test@example.com",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

func TestRenderWelcomeTemplate(t *testing.T) {
	data := WelcomeData{
		AppName:      "Artemo",
		UserName:     "Jamie Lane",
		DashboardURL: "https://app.artemo.dev/dashboard",
	}

	html, err := renderTemplate(welcomeEmailTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(html, "Artemo") {
		t.Error("template should contain app name")
	}
	if !strings.Contains(html, "Jamie Lane") {
		t.Error("template should contain user name")
	}
	if !strings.Contains(html, "https://app.artemo.dev/dashboard") {
		t.Error("template should contain dashboard URL")
	}
}

func TestRenderWelcomeTemplateWithoutName(t *testing.T) {
	data := WelcomeData{
		AppName:      "Artemo",
		DashboardURL: "https://app.artemo.dev/dashboard",
	}

	html, err := renderTemplate(welcomeEmailTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(html, "Welcome!") {
		t.Errorf("greeting should fall back to a plain welcome, got: %q", html)
	}
	if strings.Contains(html, "Welcome, !") {
		t.Error("greeting should not render a dangling comma")
	}
}

func TestRenderPaymentIssueTemplate(t *testing.T) {
	data := PaymentIssueData{
		AppName:    "Artemo",
		UserName:   "Jamie Lane",
		BillingURL: "https://app.artemo.dev/billing",
	}

	html, err := renderTemplate(paymentIssueEmailTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(html, "Artemo") {
		t.Error("template should contain app name")
	}
	if !strings.Contains(html, "Jamie Lane") {
		t.Error("template should contain user name")
	}
	if !strings.Contains(html, "https://app.artemo.dev/billing") {
		t.Error("template should contain billing URL")
	}
	if !strings.Contains(html, "paused") {
		t.Error("template should mention the paused workspace")
	}
}

func TestSendEmailRequiresConfiguration(t *testing.T) {
	svc := NewService(Config{})

	if err := svc.SendEmail([]string{"to@example.com"}, "subject", "body"); err == nil {
		t.Error("SendEmail should fail when not configured")
	}
	if err := svc.SendHTMLEmail([]string{"to@example.com"}, "subject", "<p>body</p>"); err == nil {
		t.Error("SendHTMLEmail should fail when not configured")
	}
}
