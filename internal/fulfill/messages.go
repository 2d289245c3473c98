package fulfill

// Buyer-facing chat texts. The marketplace audience is Russian-speaking, so
// the wording stays in Russian.
const (
	msgThanks         = "Спасибо за покупку Premium!\nПришлите ваш Telegram-тег (@username), чтобы получить %d мес."
	msgNickNotFound   = "❌ Ник \"%s\" не найден. Введите правильный тег (пример: @username)."
	msgAlreadyPremium = "⚠️ У %s уже активен Premium (%s). Укажите другой ник."
	msgConfirmNick    = "Вы указали: \"%s\". Если это верно — напишите \"+\", иначе отправьте другой тег."
	msgIssuing        = "🚀 Оформляю Premium на %d мес для @%s…"
	msgIssued         = "✅ Успешно оформлен Premium на %d мес для @%s!"
	msgIssueFailed    = "❌ Произошла ошибка при оформлении."
	msgTryingRefund   = "🔁 Пытаюсь оформить возврат…"
	msgRefunded       = "✅ Средства успешно возвращены."
	msgRefundNotice   = "ℹ️ Возврат оформлен. Если что — напишите нам."
	msgRefundFailed   = "❌ Ошибка возврата. Свяжитесь с админом."
	msgRefundDisabled = "⚠️ Авто-рефанд отключён. Свяжитесь с админом для возврата."

	// Shown in the already-premium rejection when the provider returned no
	// expiry detail.
	detailAfterAuth = "после авторизации"
)

// ConfirmToken is the literal reply that accepts the candidate nick.
const ConfirmToken = "+"
