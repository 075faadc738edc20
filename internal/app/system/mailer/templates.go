// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// layoutData feeds the shared HTML shell.
type layoutData struct {
	SiteName string
	Heading  string
	Lines    []string
	CTALabel string
	CTALink  string
	Footer   string
}

// ApplicationReceivedData notifies institution admins of a new application.
type ApplicationReceivedData struct {
	SiteName        string
	InstitutionName string
	ApplicantName   string
	DashboardLink   string
}

// BuildApplicationReceivedEmail creates the new-application notice sent to
// each admin of the institution.
func BuildApplicationReceivedEmail(data ApplicationReceivedData) Email {
	lines := []string{
		fmt.Sprintf("%s has applied to the %s fellowship program.", data.ApplicantName, data.InstitutionName),
		"Review the application from your dashboard.",
	}
	return Email{
		Subject:  fmt.Sprintf("New application to %s", data.InstitutionName),
		TextBody: textBody(lines, "Review applications:", data.DashboardLink),
		HTMLBody: htmlBody(layoutData{
			SiteName: data.SiteName,
			Heading:  "New application",
			Lines:    lines,
			CTALabel: "Review application",
			CTALink:  data.DashboardLink,
		}),
	}
}

// ApplicationOutcomeData notifies a fellow of the review decision.
type ApplicationOutcomeData struct {
	SiteName        string
	FellowName      string
	InstitutionName string
	Approved        bool
	CohortName      string // empty when approved without cohort assignment
	Notes           string
	DashboardLink   string
}

// BuildApplicationOutcomeEmail creates the approval or rejection notice for
// the applicant.
func BuildApplicationOutcomeEmail(data ApplicationOutcomeData) Email {
	var subject string
	var lines []string
	if data.Approved {
		subject = fmt.Sprintf("Welcome to %s", data.InstitutionName)
		lines = append(lines, fmt.Sprintf("Congratulations %s! Your application to %s has been approved.",
			data.FellowName, data.InstitutionName))
		if data.CohortName != "" {
			lines = append(lines, fmt.Sprintf("You have been enrolled in the %q cohort.", data.CohortName))
		}
	} else {
		subject = fmt.Sprintf("Your application to %s", data.InstitutionName)
		lines = append(lines, fmt.Sprintf("Dear %s, after careful review your application to %s was not accepted this time.",
			data.FellowName, data.InstitutionName))
	}
	if data.Notes != "" {
		lines = append(lines, "Reviewer notes: "+data.Notes)
	}
	return Email{
		Subject:  subject,
		TextBody: textBody(lines, "Open your dashboard:", data.DashboardLink),
		HTMLBody: htmlBody(layoutData{
			SiteName: data.SiteName,
			Heading:  subject,
			Lines:    lines,
			CTALabel: "Open dashboard",
			CTALink:  data.DashboardLink,
		}),
	}
}

// InstitutionReviewData covers the institution approval workflow notices.
type InstitutionReviewData struct {
	SiteName        string
	InstitutionName string
	AdminName       string
	DashboardLink   string
}

// BuildInstitutionPendingEmail confirms receipt of an admin-role request.
func BuildInstitutionPendingEmail(data InstitutionReviewData) Email {
	lines := []string{
		fmt.Sprintf("Your request to register %s is under review.", data.InstitutionName),
		"You will receive another email once a decision is made.",
	}
	return Email{
		Subject:  fmt.Sprintf("%s registration received", data.InstitutionName),
		TextBody: textBody(lines, "", ""),
		HTMLBody: htmlBody(layoutData{SiteName: data.SiteName, Heading: "Registration received", Lines: lines}),
	}
}

// BuildInstitutionReviewRequestEmail asks the root admin to review a signup.
func BuildInstitutionReviewRequestEmail(data InstitutionReviewData) Email {
	lines := []string{
		fmt.Sprintf("%s requested to register the institution %s.", data.AdminName, data.InstitutionName),
	}
	return Email{
		Subject:  fmt.Sprintf("Institution signup awaiting review: %s", data.InstitutionName),
		TextBody: textBody(lines, "Review pending institutions:", data.DashboardLink),
		HTMLBody: htmlBody(layoutData{
			SiteName: data.SiteName,
			Heading:  "Institution awaiting review",
			Lines:    lines,
			CTALabel: "Review institutions",
			CTALink:  data.DashboardLink,
		}),
	}
}

// BuildInstitutionApprovedEmail notifies the admin their institution is live.
func BuildInstitutionApprovedEmail(data InstitutionReviewData) Email {
	lines := []string{
		fmt.Sprintf("%s has been approved. Your admin account is now active.", data.InstitutionName),
		"You can create cohorts, review applications, and schedule sessions from your dashboard.",
	}
	return Email{
		Subject:  fmt.Sprintf("%s is approved", data.InstitutionName),
		TextBody: textBody(lines, "Open your dashboard:", data.DashboardLink),
		HTMLBody: htmlBody(layoutData{
			SiteName: data.SiteName,
			Heading:  "Institution approved",
			Lines:    lines,
			CTALabel: "Open dashboard",
			CTALink:  data.DashboardLink,
		}),
	}
}

// BuildInstitutionRejectedEmail notifies the requester of a rejection.
// The account keeps its transient role and can restart onboarding.
func BuildInstitutionRejectedEmail(data InstitutionReviewData) Email {
	lines := []string{
		fmt.Sprintf("Your request to register %s was not approved.", data.InstitutionName),
		"You may submit a new request with updated details.",
	}
	return Email{
		Subject:  fmt.Sprintf("%s registration decision", data.InstitutionName),
		TextBody: textBody(lines, "", ""),
		HTMLBody: htmlBody(layoutData{SiteName: data.SiteName, Heading: "Registration not approved", Lines: lines}),
	}
}

// SessionNoticeData covers session scheduled/updated/cancelled notices.
type SessionNoticeData struct {
	SiteName     string
	CohortName   string
	SessionTitle string
	When         string   // formatted start-end, e.g. "Mon, 02 Jun 2025 15:00-16:00 UTC"
	MeetingLink  string
	Changes      []string // update notices only
	Reason       string   // cancellation notices only
}

// BuildSessionScheduledEmail announces a new session to a cohort fellow.
func BuildSessionScheduledEmail(data SessionNoticeData) Email {
	lines := []string{
		fmt.Sprintf("A new session %q has been scheduled for the %s cohort.", data.SessionTitle, data.CohortName),
		"When: " + data.When,
	}
	return Email{
		Subject:  fmt.Sprintf("Session scheduled: %s", data.SessionTitle),
		TextBody: textBody(lines, "Join link:", data.MeetingLink),
		HTMLBody: htmlBody(layoutData{
			SiteName: data.SiteName,
			Heading:  "Session scheduled",
			Lines:    lines,
			CTALabel: "Join meeting",
			CTALink:  data.MeetingLink,
		}),
	}
}

// BuildSessionUpdatedEmail summarizes what changed on a session.
func BuildSessionUpdatedEmail(data SessionNoticeData) Email {
	lines := []string{
		fmt.Sprintf("The session %q (%s cohort) has been updated:", data.SessionTitle, data.CohortName),
	}
	for _, c := range data.Changes {
		lines = append(lines, "- "+c)
	}
	lines = append(lines, "When: "+data.When)
	return Email{
		Subject:  fmt.Sprintf("Session updated: %s", data.SessionTitle),
		TextBody: textBody(lines, "Join link:", data.MeetingLink),
		HTMLBody: htmlBody(layoutData{
			SiteName: data.SiteName,
			Heading:  "Session updated",
			Lines:    lines,
			CTALabel: "Join meeting",
			CTALink:  data.MeetingLink,
		}),
	}
}

// BuildSessionCancelledEmail announces a cancellation with its reason.
func BuildSessionCancelledEmail(data SessionNoticeData) Email {
	lines := []string{
		fmt.Sprintf("The session %q (%s cohort) scheduled for %s has been cancelled.",
			data.SessionTitle, data.CohortName, data.When),
		"Reason: " + data.Reason,
	}
	return Email{
		Subject:  fmt.Sprintf("Session cancelled: %s", data.SessionTitle),
		TextBody: textBody(lines, "", ""),
		HTMLBody: htmlBody(layoutData{SiteName: data.SiteName, Heading: "Session cancelled", Lines: lines}),
	}
}

// AdminWelcomeData is used when the root admin creates an institution
// directly and assigns its admin.
type AdminWelcomeData struct {
	SiteName        string
	InstitutionName string
	AdminName       string
	DashboardLink   string
}

// BuildAdminWelcomeEmail notifies a directly-assigned institution admin.
func BuildAdminWelcomeEmail(data AdminWelcomeData) Email {
	lines := []string{
		fmt.Sprintf("You have been made the administrator of %s.", data.InstitutionName),
		"Sign in with this email address to manage your institution.",
	}
	return Email{
		Subject:  fmt.Sprintf("You are now the admin of %s", data.InstitutionName),
		TextBody: textBody(lines, "Sign in:", data.DashboardLink),
		HTMLBody: htmlBody(layoutData{
			SiteName: data.SiteName,
			Heading:  "Welcome aboard",
			Lines:    lines,
			CTALabel: "Sign in",
			CTALink:  data.DashboardLink,
		}),
	}
}

func textBody(lines []string, linkLabel, link string) string {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l + "\n")
	}
	if link != "" {
		buf.WriteString("\n" + linkLabel + "\n" + link + "\n")
	}
	return buf.String()
}

func htmlBody(data layoutData) string {
	tmpl := template.Must(template.New("layout").Parse(layoutHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return strings.TrimSpace(buf.String())
}

const layoutHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Heading}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <h2 style="margin: 0 0 16px; font-size: 18px; color: #1f2937;">{{.Heading}}</h2>
              {{range .Lines}}
              <p style="margin: 0 0 16px; font-size: 15px; color: #374151; line-height: 1.5;">{{.}}</p>
              {{end}}
              {{if .CTALink}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center" style="padding-top: 8px;">
                    <a href="{{.CTALink}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">{{.CTALabel}}</a>
                  </td>
                </tr>
              </table>
              {{end}}
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">You are receiving this email because of your {{.SiteName}} account.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
