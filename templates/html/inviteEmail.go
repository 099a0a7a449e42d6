package templates

import (
	"fmt"
	"html"
)

// RenderInviteEmail generates the HTML body for a family invite notification.
// acceptURL carries a signed token, so the recipient can join with one click.
func RenderInviteEmail(inviterName, familyName, acceptURL string) string {
	safeInviter := html.EscapeString(inviterName)
	safeFamily := html.EscapeString(familyName)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Family invite</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #faf6f0; }
    .container { max-width: 600px; margin: 0 auto; background-color: #fffdf9; }
    .header { background: linear-gradient(135deg, #e07a5f 0%%, #bc4b51 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #3d405b; line-height: 1.6; font-size: 15px; }
    .button { display: inline-block; background: #e07a5f; color: #fff; padding: 12px 28px; border-radius: 6px; text-decoration: none; font-weight: 600; }
    .footer { padding: 30px; text-align: center; color: #8d8d8d; font-size: 12px; border-top: 1px solid rgba(0,0,0,0.08); }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>You have been invited to %s</h1>
    </div>
    <div class="content">
      <p>%s has invited you to join the <strong>%s</strong> family on Family Recipes.</p>
      <p>As a member you can see every recipe the family shares and add your own.</p>
      <p style="text-align:center;padding-top:20px;"><a class="button" href="%s">Accept invite</a></p>
      <p style="font-size:13px;color:#8d8d8d;">If you were not expecting this invite you can ignore this email.</p>
    </div>
    <div class="footer">
      <p>&copy; Family Recipes</p>
    </div>
  </div>
</body>
</html>`, safeFamily, safeInviter, safeFamily, acceptURL)
}
