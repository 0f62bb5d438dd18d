package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `mockdesk is a demo ticket tracker with mock accounts.

Sessions:
- signup or login returns a token "mock-token-<userId>" and makes it the active session.
- Every ticket tool accepts an optional token. Without one the HTTP bearer header is used, then the active session.
- logout clears the active session. A NO_TOKEN or INVALID_TOKEN error also clears it; log in again.

Tickets:
- status is open, in_progress or closed. priority is low, medium or high.
- title is required. description is at most 500 characters.
- You only see and change your own tickets. sample_tickets shows read-only demo data.

Docs:
- mockdesk://docs/index
- mockdesk://docs/tickets
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "mockdesk://docs/index",
		Name:        "index",
		Title:       "mockdesk overview",
		Description: "Accounts, sessions and the tool list",
		Content: `# mockdesk

Accounts are stored with plaintext passwords and tokens are the user id with a
fixed prefix. Nothing here is real authentication; do not reuse passwords.

## Tools

- signup(email, password, name?)
- login(email, password)
- logout()
- whoami(token?)
- list_tickets(token?)
- create_ticket(title, status, priority, description?, user_id?, token?)
- update_ticket(id, title?, description?, status?, priority?, token?)
- delete_ticket(id, token?)
- dashboard(recent?, token?)
- sample_tickets()
`,
	},
	{
		URI:         "mockdesk://docs/tickets",
		Name:        "tickets",
		Title:       "Working with tickets",
		Description: "Field rules, ownership and the dashboard",
		Content: `# Tickets

A ticket belongs to the user who created it. Other users get
UNAUTHORIZED when they try to change or delete it.

## Fields

- title: required
- description: optional, 500 characters max
- status: open | in_progress | closed
- priority: low | medium | high

update_ticket only changes the fields you pass.

## Dashboard

dashboard returns totals per status and the newest tickets first
(5 unless recent is set).
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
