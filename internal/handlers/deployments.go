package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nodeplane/nodeplane/internal/models"
	"github.com/nodeplane/nodeplane/internal/services"
)

func deploymentResponse(dep *models.Deployment) models.DeploymentResponse {
	return models.DeploymentResponse{
		UID:             dep.UID,
		Name:            dep.Name,
		Description:     dep.Description,
		TargetNodeCount: dep.TargetNodeCount,
		CreatedAt:       dep.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       dep.UpdatedAt.Format(time.RFC3339),
	}
}

func nodeResponse(node *models.Node) models.NodeResponse {
	return models.NodeResponse{
		UID:            node.UID,
		NodeID:         node.NodeID,
		State:          string(node.State),
		Hostname:       node.Hostname,
		IPAddress:      node.IPAddress,
		CreatedAt:      node.CreatedAt.Format(time.RFC3339),
		StateChangedAt: node.StateChangedAt.Format(time.RFC3339),
	}
}

// CreateDeployment handles POST /v1/deployments. The nodes start in
// PENDING and are picked up by the lifecycle scheduler.
func (h *Handler) CreateDeployment(c *fiber.Ctx) error {
	var req models.CreateDeploymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    services.CodeInvalid,
				Message: "Failed to parse request body: " + err.Error(),
			},
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    services.CodeInvalid,
				Message: err.Error(),
			},
		})
	}

	dep, err := h.deploymentService.Create(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(deploymentResponse(dep))
}

// ListDeployments handles GET /v1/deployments with skip/limit pagination
func (h *Handler) ListDeployments(c *fiber.Ctx) error {
	skip := c.QueryInt("skip", 0)
	limit := c.QueryInt("limit", 100)
	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	deps, err := h.deploymentService.List(c.UserContext(), skip, limit)
	if err != nil {
		return h.fail(c, err)
	}

	resp := models.DeploymentListResponse{
		Deployments: make([]models.DeploymentResponse, len(deps)),
		Total:       len(deps),
	}
	for i, dep := range deps {
		resp.Deployments[i] = deploymentResponse(dep)
	}
	return c.JSON(resp)
}

// GetDeployment handles GET /v1/deployments/:uid
func (h *Handler) GetDeployment(c *fiber.Ctx) error {
	uid := c.Params("uid")

	dep, err := h.deploymentService.Get(c.UserContext(), uid)
	if err != nil {
		return h.fail(c, err)
	}
	count, err := h.deploymentService.NodeCount(c.UserContext(), uid)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(models.DeploymentDetailResponse{
		DeploymentResponse: deploymentResponse(dep),
		CurrentNodeCount:   count,
	})
}

// DeleteDeployment handles DELETE /v1/deployments/:uid. Deleting
// cascades to the deployment's nodes, samples, and events.
func (h *Handler) DeleteDeployment(c *fiber.Ctx) error {
	if err := h.deploymentService.Delete(c.UserContext(), c.Params("uid")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetDeploymentNodes handles GET /v1/deployments/:uid/nodes
func (h *Handler) GetDeploymentNodes(c *fiber.Ctx) error {
	nodes, err := h.nodeService.ListByDeployment(c.UserContext(), c.Params("uid"))
	if err != nil {
		return h.fail(c, err)
	}

	resp := models.NodeListResponse{
		Nodes: make([]models.NodeResponse, len(nodes)),
		Total: len(nodes),
	}
	for i, node := range nodes {
		resp.Nodes[i] = nodeResponse(node)
	}
	return c.JSON(resp)
}

// GetDeploymentEvents handles GET /v1/deployments/:uid/events
func (h *Handler) GetDeploymentEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	events, err := h.deploymentService.ListEvents(c.UserContext(), c.Params("uid"), limit)
	if err != nil {
		return h.fail(c, err)
	}

	resp := models.EventListResponse{
		Events: make([]models.EventResponse, len(events)),
		Total:  len(events),
	}
	for i, ev := range events {
		resp.Events[i] = models.EventResponse{
			UID:       ev.UID,
			NodeUID:   ev.NodeUID,
			Type:      ev.Type,
			Message:   ev.Message,
			CreatedAt: ev.CreatedAt.Format(time.RFC3339),
		}
	}
	return c.JSON(resp)
}
