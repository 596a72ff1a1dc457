package mcp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/paularlott/mcp"

	"github.com/martinsuchenak/edgetag/internal/classify"
	"github.com/martinsuchenak/edgetag/internal/job"
	"github.com/martinsuchenak/edgetag/internal/log"
	"github.com/martinsuchenak/edgetag/internal/model"
	"github.com/martinsuchenak/edgetag/internal/storage"
)

const (
	serverName    = "edgetag"
	serverVersion = "1.0.0"

	modeCommit = "commit"
	modeDryRun = "dry-run"
)

var errInvalidMode = errors.New("mode must be commit or dry-run")

// Server exposes tagging runs and the inventory as MCP tools
type Server struct {
	mcpServer   *mcp.Server
	storage     storage.Storage
	runner      *job.Runner
	classifier  *classify.Classifier
	bearerToken string
}

// NewServer creates a new MCP server
func NewServer(store storage.Storage, runner *job.Runner, classifier *classify.Classifier, bearerToken string) *Server {
	if classifier == nil {
		classifier = classify.New()
	}
	s := &Server{
		mcpServer:   mcp.NewServer(serverName, serverVersion),
		storage:     store,
		runner:      runner,
		classifier:  classifier,
		bearerToken: bearerToken,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.RegisterTool(
		mcp.NewTool("tag_public_devices", "Tag every active device that has a public IPv4 address on a non-deprecated interface address. Runs synchronously and returns the job log.",
			mcp.String("tag", "Tag to apply (ID, slug or name)", mcp.Required()),
			mcp.String("mode", "commit (default) or dry-run; a dry run reports what would change and rolls back"),
		),
		s.handleTagPublicDevices,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("job_get", "Get the status, log and result of a tagging job",
			mcp.String("id", "Job ID", mcp.Required()),
		),
		s.handleJobGet,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("device_list", "List devices, optionally filtered by status and tags",
			mcp.String("status", "Device status (e.g. active, planned, offline)"),
			mcp.StringArray("tags", "Filter by tag slugs (returns devices matching any tag)"),
		),
		s.handleDeviceList,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("classify_address", "Report whether an IPv4 interface address such as 203.0.113.5/24 is public",
			mcp.String("address", "IPv4 address with optional prefix length", mcp.Required()),
		),
		s.handleClassifyAddress,
	)
}

// HandleRequest handles MCP HTTP requests with optional bearer token authentication
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	log.Debug("MCP request received", "method", r.Method, "remote_addr", r.RemoteAddr)

	if s.bearerToken != "" {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			log.Warn("MCP request missing Authorization header", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Missing Authorization header", http.StatusUnauthorized)
			return
		}
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.bearerToken)) != 1 {
			log.Warn("MCP request invalid token", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
	}

	s.mcpServer.HandleRequest(w, r)
}

func (s *Server) handleTagPublicDevices(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	tag, err := req.String("tag")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("tag is required: " + err.Error())
	}

	text, err := s.tagPublicDevices(ctx, tag, req.StringOr("mode", modeCommit))
	if err != nil {
		if errors.Is(err, errInvalidMode) || errors.Is(err, storage.ErrTagNotFound) {
			return nil, mcp.NewToolErrorInvalidParams(err.Error())
		}
		return nil, mcp.NewToolErrorInternal(err.Error())
	}
	return mcp.NewToolResponseText(text), nil
}

// tagPublicDevices runs the job and renders it. Run failures are reported
// in the text since the job record holds the details.
func (s *Server) tagPublicDevices(ctx context.Context, tag, mode string) (string, error) {
	var commit bool
	switch mode {
	case "", modeCommit:
		commit = true
	case modeDryRun:
		commit = false
	default:
		return "", errInvalidMode
	}

	if _, err := s.storage.GetTag(ctx, tag); err != nil {
		return "", err
	}

	log.Info("MCP tagging run requested", "tag", tag, "commit", commit)
	j, err := s.runner.RunNow(ctx, tag, commit, model.TriggerMCP)
	if j == nil {
		return "", err
	}
	return formatJob(j), nil
}

func (s *Server) handleJobGet(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	j, err := s.storage.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return nil, mcp.NewToolErrorInvalidParams("job not found: " + id)
		}
		return nil, mcp.NewToolErrorInternal("failed to get job: " + err.Error())
	}
	return mcp.NewToolResponseText(formatJob(j)), nil
}

func (s *Server) handleDeviceList(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	status := req.StringOr("status", "")
	tags, _ := req.StringSlice("tags")

	text, err := s.listDevices(ctx, status, tags)
	if err != nil {
		return nil, mcp.NewToolErrorInternal("failed to list devices: " + err.Error())
	}
	return mcp.NewToolResponseText(text), nil
}

func (s *Server) listDevices(ctx context.Context, status string, tags []string) (string, error) {
	devices, err := s.storage.ListDevices(ctx, &model.DeviceFilter{Status: status, Tags: tags})
	if err != nil {
		return "", err
	}

	log.Debug("MCP device list completed", "count", len(devices), "status", status, "tags", tags)

	if len(devices) == 0 {
		return "No devices found", nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Found %d devices:\n\n", len(devices))
	for i := range devices {
		result.WriteString(formatDeviceSummary(&devices[i]))
		result.WriteString("\n")
	}
	return result.String(), nil
}

func (s *Server) handleClassifyAddress(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	address, err := req.String("address")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("address is required: " + err.Error())
	}

	text, err := s.classifyAddress(address)
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams(err.Error())
	}
	return mcp.NewToolResponseText(text), nil
}

func (s *Server) classifyAddress(address string) (string, error) {
	public, err := s.classifier.IsPublic(address)
	if err != nil {
		return "", err
	}
	if public {
		return fmt.Sprintf("%s is public", address), nil
	}
	return fmt.Sprintf("%s is not public", address), nil
}

func formatJob(j *model.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job %s: %s\n", j.ID, j.Status)
	fmt.Fprintf(&b, "Tag: %s\n", j.Tag)
	if j.Commit {
		b.WriteString("Mode: commit\n")
	} else {
		b.WriteString("Mode: dry-run\n")
	}
	if j.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", j.Error)
	}

	if len(j.Log) > 0 {
		b.WriteString("\nLog:\n")
		for _, e := range j.Log {
			fmt.Fprintf(&b, "  [%s] %s\n", e.Level, e.Message)
		}
	}

	if len(j.Result) == 0 {
		b.WriteString("\nNo devices newly tagged\n")
		return b.String()
	}
	fmt.Fprintf(&b, "\nNewly tagged (%d):\n", len(j.Result))
	for _, ref := range j.Result {
		fmt.Fprintf(&b, "  - %s (%s)\n", ref.Name, ref.ID)
	}
	return b.String()
}

func formatDeviceSummary(device *model.Device) string {
	var result strings.Builder
	fmt.Fprintf(&result, "Name: %s\n", device.Name)
	fmt.Fprintf(&result, "ID: %s\n", device.ID)
	fmt.Fprintf(&result, "Status: %s\n", device.Status)
	if len(device.Tags) > 0 {
		fmt.Fprintf(&result, "Tags: %s\n", strings.Join(device.Tags, ", "))
	}
	for _, iface := range device.Interfaces {
		addrs := make([]string, 0, len(iface.Addresses))
		for _, a := range iface.Addresses {
			addrs = append(addrs, a.Address+" ("+a.Status+")")
		}
		fmt.Fprintf(&result, "Interface %s: %s\n", iface.Name, strings.Join(addrs, ", "))
	}
	return result.String()
}

// GetHTTPHandler returns the HTTP handler for the MCP server
func (s *Server) GetHTTPHandler() http.HandlerFunc {
	return s.HandleRequest
}

// LogStartup logs MCP server startup information
func (s *Server) LogStartup() {
	log.Info("MCP Server initialized", "version", serverVersion)
	if s.bearerToken != "" {
		log.Info("MCP authentication enabled", "type", "Bearer token")
	} else {
		log.Info("MCP authentication disabled")
	}
	tools := s.mcpServer.ListTools()
	log.Info("MCP tools registered", "count", len(tools))
	for _, tool := range tools {
		log.Debug("MCP tool registered", "name", tool.Name)
	}
}
