package telegram

import "cyto-bot/internal/domain/entity"

const (
	msgStart = `👋 Привет! Я помогаю разбирать цитологические снимки шейки матки.

📸 Отправьте снимок клетки, и я верну классификацию, сегментацию, карты объяснимости и оценку неопределённости.

📋 Команды:
/analyze — полный анализ снимка
/classify — только классификация
/quality — оценка качества снимка
/cells — поиск нескольких клеток
/stain — нормализация окраски по эталону
/batch — пакетная обработка
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте /analyze и затем снимок (фото или файл-изображение)
2️⃣ В подписи к снимку можно указать ID и имя пациента: P-102 Jane Doe
3️⃣ Бот пришлёт панели результата и изображения

🔬 После анализа:
/xai [scorecam|layercam] [overlay|masked|heatmap_only] [0-100] — карта объяснимости
/report <patient_id> [sample=…] [clinician=…] [date=YYYY-MM-DD] [notes=…] — отчёт
/pdf — отчёт в PDF
/json — результат в JSON

📦 Пакетная обработка:
/batch — начать сбор снимков, /done — отправить, /status — состояние задания

🗂 История:
/history — прошлые анализы, /record <id> [pdf] — одна запись
/classes — классы классификатора`

	msgAwaitingPhoto    = "📸 Отправьте снимок для полного анализа. В подписи можно указать ID и имя пациента."
	msgAwaitingClassify = "📸 Отправьте снимок для классификации."
	msgAwaitingQuality  = "📸 Отправьте снимок для оценки качества."
	msgAwaitingCells    = "📸 Отправьте снимок для поиска клеток."
	msgAwaitingSource   = "🎨 Отправьте снимок, окраску которого нужно нормализовать."
	msgAwaitingTarget   = "🎨 Теперь отправьте эталонный снимок окраски."
	msgCollectingBatch  = "📦 Отправляйте снимки по одному. Когда закончите, отправьте /done."
	msgBatchAdded       = "📥 Добавлено снимков: %d. /done — отправить пакет."
	msgBatchEmpty       = "📦 Нет снимков для отправки. Сначала отправьте /batch и снимки."
	msgCancelled        = "❌ Операция отменена. Отправьте /analyze для нового анализа."
	msgSendPhoto        = "📸 Пожалуйста, отправьте снимок. /help — справка."
	msgUnknownCommand   = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing       = "⏳ Обрабатываю изображение..."
	msgBusy             = "⏳ Это действие уже выполняется, дождитесь результата."
	msgNotImage         = "⚠️ Файл не является изображением."
	msgDownloadError    = "⚠️ Не удалось получить файл из Telegram. Попробуйте ещё раз."
	msgNoResult         = "ℹ️ Нет результата анализа. Отправьте /analyze и снимок."
	msgNoReport         = "ℹ️ Отчёт ещё не сформирован. Используйте /report <patient_id>."
	msgNoBatch          = "ℹ️ Пакетное задание ещё не отправлено."
	msgReportReady      = "📄 Отчёт сформирован. /pdf — выгрузить в PDF."
	msgRecordUsage      = "Использование: /record <id> [pdf]"
	msgInternalError    = "⚠️ Что-то пошло не так. Попробуйте ещё раз."
	msgClasses          = "🏷 Классы классификатора:\n%s"
)

// statePrompts подсказка для каждого состояния ожидания снимка
var statePrompts = map[entity.UserState]string{
	entity.StateAwaitingPhoto:         msgAwaitingPhoto,
	entity.StateAwaitingClassifyPhoto: msgAwaitingClassify,
	entity.StateAwaitingQualityPhoto:  msgAwaitingQuality,
	entity.StateAwaitingCellsPhoto:    msgAwaitingCells,
	entity.StateAwaitingStainSource:   msgAwaitingSource,
	entity.StateAwaitingStainTarget:   msgAwaitingTarget,
	entity.StateCollectingBatch:       msgCollectingBatch,
}
