package server

import (
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/usecase"
)

type ChatController interface {
	Send(c echo.Context, req models.ChatRequest) (*models.ChatReply, error)
	ListConversations(c echo.Context, req struct{}) (*models.ConversationList, error)
	CreateConversation(c echo.Context, req models.CreateConversationRequest) (*models.ConversationResponse, error)
	GetConversation(c echo.Context, req models.GetConversationRequest) (*models.ConversationDetail, error)
	DeleteConversation(c echo.Context, req models.DeleteConversationRequest) error
}

type chatController struct {
	chatUsecase usecase.ChatUsecase
}

func NewChatController(chatUsecase usecase.ChatUsecase) ChatController {
	return &chatController{chatUsecase: chatUsecase}
}

// Send answers 200 even when the model is down; the reply is then an apology.
func (cc *chatController) Send(c echo.Context, req models.ChatRequest) (*models.ChatReply, error) {
	return cc.chatUsecase.Send(c.Request().Context(), currentUser(c), req)
}

func (cc *chatController) ListConversations(c echo.Context, _ struct{}) (*models.ConversationList, error) {
	conversations, err := cc.chatUsecase.ListConversations(c.Request().Context(), currentUser(c))
	if err != nil {
		return nil, err
	}
	return &models.ConversationList{Success: true, Conversations: conversations}, nil
}

func (cc *chatController) CreateConversation(c echo.Context, req models.CreateConversationRequest) (*models.ConversationResponse, error) {
	conversation, err := cc.chatUsecase.CreateConversation(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return &models.ConversationResponse{Success: true, Conversation: conversation}, nil
}

func (cc *chatController) GetConversation(c echo.Context, req models.GetConversationRequest) (*models.ConversationDetail, error) {
	return cc.chatUsecase.GetConversation(c.Request().Context(), currentUser(c), req.ID)
}

func (cc *chatController) DeleteConversation(c echo.Context, req models.DeleteConversationRequest) error {
	return cc.chatUsecase.DeleteConversation(c.Request().Context(), currentUser(c), req.ConversationID)
}
