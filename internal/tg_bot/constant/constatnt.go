package constant

const (
	EMOJI_TRAIN             = "\U0001F686"           //🚆
	EMOJI_BED               = "\U0001F6CF\U0000FE0F" //🛏️
	EMOJI_MINUS             = "\U00002796"           //➖
	EMOJI_BELL              = "\U0001F514"           //🔔
	EMOJI_PRICE_UP          = "\U0001F4C8"           //📈
	EMOJI_PRICE_DOWN        = "\U0001F4C9"           //📉
	EMOJI_CHECK_MARK        = "\U00002714\U0000FE0F" //✔️
	EMOJI_SUBSCRIBED        = "\U00002705"           //✅
	EMOJI_UNSUBSCRIBED      = "\U0000274C"           //❌
	EMOJI_WARNING           = "\U000026A0\U0000FE0F" //⚠️
	EMOJI_HELP              = "\U0001F4A1"           //💡
	EMOJI_NEW               = "\U0001F195"           //🆕
	EMOJI_SOLD_OUT          = "\U0001F6AB"           //🚫
	EMOJI_WAVE              = "\U0001F44B"           //👋
	EMOJI_BUTTON_SUBSCRIBED = EMOJI_SUBSCRIBED + " Подписан"

	BUTTON_TEXT_FIND_TRAINS     = "Найти поезда"
	BUTTON_TEXT_MY_SUBSCRIPTION = "Мои подписки"
	BUTTON_TEXT_STATIONS_BOOK   = "Справочник станций"
	BUTTON_TEXT_HELP            = "Помощь"

	BUTTON_TEXT_SUBSCRIBE   = "Подписаться"
	BUTTON_TEXT_UNSUBSCRIBE = EMOJI_BUTTON_SUBSCRIBED

	COMMAND_START = "/start"
)

// Reply texts. Placeholders are filled with fmt.Sprintf.
const (
	REPLY_MAIN_MENU      = "Воспользуйтесь главным меню"
	REPLY_START          = EMOJI_WAVE + " Привет! Я помогу найти билеты на поезд и сообщу, если цены изменятся."
	REPLY_HELP           = EMOJI_HELP + " Нажмите «Найти поезда», введите станции отправления и прибытия и дату поездки. Под каждым поездом есть кнопка подписки: я буду присылать уведомления об изменении цен."
	REPLY_TRY_AGAIN      = EMOJI_WARNING + " Что-то пошло не так, попробуйте еще раз"
	REPLY_QUERY_FAILED   = EMOJI_WARNING + " Не удалось обработать запрос"
	REPLY_ENTER_DEPART   = "Введите станцию отправления"
	REPLY_ENTER_ARRIVAL  = "Введите станцию прибытия"
	REPLY_ENTER_DATE     = "Введите дату отправления в формате ДД.ММ.ГГГГ"
	REPLY_STATION_404    = EMOJI_WARNING + " Станция не найдена, проверьте название и попробуйте еще раз"
	REPLY_STATIONS_EQUAL = EMOJI_WARNING + " Станции отправления и прибытия должны отличаться"
	REPLY_WRONG_DATE     = EMOJI_WARNING + " Неверный формат даты, используйте ДД.ММ.ГГГГ"
	REPLY_TRAINS_404     = "Поезда на выбранную дату не найдены"
	REPLY_SEARCH_DONE    = EMOJI_CHECK_MARK + " Поиск завершен"

	REPLY_STATIONS_HELP  = "Введите название станции или его часть"
	REPLY_STATION_FOUND  = EMOJI_CHECK_MARK + " Найдена станция: %s"
	REPLY_STATIONS_FOUND = EMOJI_CHECK_MARK + " Найденные станции:\n%s"
	REPLY_STATIONS_EMPTY = "Станции не найдены"

	REPLY_NO_SUBSCRIPTIONS   = "У вас нет активных подписок"
	REPLY_SUBSCRIPTIONS_DONE = EMOJI_CHECK_MARK + " Список подписок загружен"
	REPLY_SEARCH_AGAIN       = EMOJI_WARNING + " Информация о поезде устарела, выполните поиск заново"
	REPLY_ALREADY_SUBSCRIBED = EMOJI_WARNING + " Вы уже подписаны на этот поезд"
	REPLY_NOT_SUBSCRIBED     = EMOJI_WARNING + " Подписка не найдена"
	REPLY_SUBSCRIBED         = EMOJI_SUBSCRIBED + " Вы подписались на поезд %s, отправление %s"
	REPLY_UNSUBSCRIBED       = EMOJI_UNSUBSCRIBED + " Вы отписались от поезда %s, отправление %s"

	TEXT_TRAIN_INFO = EMOJI_TRAIN + " %s %s\nОтправление: %s %s %s\nПрибытие: %s %s %s\nВ пути: %s\n%s"
	TEXT_CAR_INFO   = EMOJI_BED + " %s " + EMOJI_MINUS + " свободных мест: %d " + EMOJI_MINUS + " от %d ₽\n"

	NOTIFY_DEPARTED       = EMOJI_BELL + " Поезд %s %s, отправление %s %s, ушел. Подписка удалена."
	NOTIFY_PRICE_CHANGES  = EMOJI_BELL + " Изменились цены на поезд %s %s, отправление %s %s, до станции %s:\n"
	NOTIFY_PRICE_UP       = EMOJI_PRICE_UP + " %s: цена выросла с %d до %d ₽\n"
	NOTIFY_PRICE_DOWN     = EMOJI_PRICE_DOWN + " %s: цена снизилась с %d до %d ₽\n"
	NOTIFY_CAR_VANISHED   = EMOJI_SOLD_OUT + " %s: билетов больше нет\n"
	NOTIFY_CAR_APPEARED   = EMOJI_NEW + " %s: появились билеты от %d ₽\n"
	NOTIFY_LAST_PRICES    = "\nАктуальные цены:\n"
	CALLBACK_DATA_PATTERN = "%s|%s"
)
