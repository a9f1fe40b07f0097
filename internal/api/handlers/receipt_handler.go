package handlers

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"nomorewaste/domain"
	"nomorewaste/internal/api/presenters"
	"nomorewaste/pkg/receipt"
)

type (
	ReceiptHandler interface {
		ExtractReceipt(c *fiber.Ctx) error
	}

	receiptHandler struct {
		receiptService receipt.ReceiptService
	}
)

func NewReceiptHandler(receiptService receipt.ReceiptService) ReceiptHandler {
	return &receiptHandler{
		receiptService: receiptService,
	}
}

// ExtractReceipt accepts the photo either as the multipart field receipt_image or as the raw request body.
func (h *receiptHandler) ExtractReceipt(c *fiber.Ctx) error {
	userID, _ := member(c)

	image, err := receiptImage(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.receiptService.ExtractReceipt(c.Context(), userID, image)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedExtractReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessExtractReceipt)
}

func receiptImage(c *fiber.Ctx) ([]byte, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		file, err := c.FormFile("receipt_image")
		if err != nil {
			return nil, err
		}
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	body := c.Body()
	if len(body) == 0 {
		return nil, errors.New("receipt image is required")
	}
	// fasthttp reuses the body buffer after the handler returns
	return append([]byte(nil), body...), nil
}
