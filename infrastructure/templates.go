package infrastructure

import (
	"fmt"
	"html"
	"net/url"

	"job-board/domain"
)

const emailFooterHTML = `<p>From your frens at</p>
<div style="margin-bottom: 20px;">
  <a href="https://fren.work" style="background-color: #4ADE80; color: white; padding: 10px 20px; font-family: Arial, sans-serif; font-weight: 600; text-decoration: none; display: inline-block;">FREN.WORK</a>
</div>
<div>
  <a href="mailto:support@fren.work" style="color: #A9A9A9;">support@fren.work</a>
</div>`

const buttonStyle = `background-color: #4ADE80; color: white; border-style: solid; font-family: Arial, sans-serif; border-color: #4ADE80; padding: 10px 20px; text-decoration: none; border-radius: 5px;`

func AdminMagicLink(baseURL, token string) string {
	return baseURL + "/admin?token=" + url.QueryEscape(token)
}

func JobEditMagicLink(baseURL, token string) string {
	return baseURL + "/edit-job?token=" + url.QueryEscape(token)
}

func expiryNotice(ttlHours int) string {
	if ttlHours == 1 {
		return "This link will expire in 1 hour for security reasons."
	}
	return fmt.Sprintf("This link will expire in %d hours for security reasons.", ttlHours)
}

// AdminMagicLinkEmail is sent when a board is created or an admin asks for
// a fresh link. The caller fills in the recipient.
func AdminMagicLinkEmail(communityName, token, baseURL string, ttlHours int) domain.EmailMessage {
	link := AdminMagicLink(baseURL, token)
	notice := expiryNotice(ttlHours)

	text := fmt.Sprintf(`Hello!

Your job board "%s" is ready.

Click the link below to access your admin panel:
%s

%s

Best regards,
FREN.WORK`, communityName, link, notice)

	body := fmt.Sprintf(`<h2>Your job board is ready!</h2>
<p>Hello!</p>
<p>Your job board "<strong>%s</strong>" is ready.</p>
<p><a href="%s" style="%s">Access Admin Panel</a></p>
<p><small>%s</small></p>
%s`, html.EscapeString(communityName), html.EscapeString(link), buttonStyle, notice, emailFooterHTML)

	return domain.EmailMessage{
		Subject: fmt.Sprintf("Admin access for %s job board", communityName),
		Text:    text,
		HTML:    body,
	}
}

// JobEditMagicLinkEmail is sent to the poster after a job is submitted.
func JobEditMagicLinkEmail(jobTitle, token, baseURL string, ttlHours int) domain.EmailMessage {
	link := JobEditMagicLink(baseURL, token)
	notice := expiryNotice(ttlHours)

	text := fmt.Sprintf(`Hello!

Your job posting "%s" has been submitted successfully.

Click the link below to edit or manage your job posting:
%s

%s You can request a new link from the job page at any time.

Best regards,
FREN.WORK`, jobTitle, link, notice)

	body := fmt.Sprintf(`<h2>Job posted successfully!</h2>
<p>Hello!</p>
<p>Your job posting "<strong>%s</strong>" has been submitted successfully.</p>
<p><a href="%s" style="%s">Manage Job Post</a></p>
<p><small>%s</small></p>
%s`, html.EscapeString(jobTitle), html.EscapeString(link), buttonStyle, notice, emailFooterHTML)

	return domain.EmailMessage{
		Subject: fmt.Sprintf("Edit your job posting: %s", jobTitle),
		Text:    text,
		HTML:    body,
	}
}
