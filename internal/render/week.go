// Package render draws a counselor's week of slots as a PNG calendar.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type fontStyle int

const (
	fontRegular fontStyle = iota
	fontMedium
	fontBold
)

// Размеры и отступы
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 120
	dayPaddingX      = 8
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	daysInWeek       = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 20
)

const (
	titleFontSize      = 25.0
	dayFontSize        = 27.0
	hourLabelFontSize  = 18.0
	slotTimeFontSize   = 17.0
	legendItemFontSize = 12.0
)

var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{120, 170, 230, 90}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{225, 225, 225, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	slotAvailableColor  = color.RGBA{133, 193, 85, 220}
	slotBookedColor     = color.RGBA{255, 182, 193, 255}
	slotBlockedColor    = color.RGBA{158, 158, 158, 200}
	slotDefaultColor    = color.RGBA{220, 220, 220, 200}
	slotTextColor       = color.RGBA{20, 24, 28, 230}
	slotBookedTextColor = color.RGBA{120, 40, 50, 255}
	slotShadowColor     = color.RGBA{0, 0, 0, 20}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

type hourRange struct {
	start int
	end   int
	total int
}

var (
	fontsMu     sync.Mutex
	parsedFonts = make(map[fontStyle]*opentype.Font)
)

func fontData(style fontStyle) []byte {
	switch style {
	case fontBold:
		return gobold.TTF
	case fontMedium:
		return gomedium.TTF
	default:
		return goregular.TTF
	}
}

// setFont выставляет шрифт нужного размера, при ошибке разбора берёт basicfont
func setFont(dc *gg.Context, size float64, style fontStyle) {
	fontsMu.Lock()
	parsed, ok := parsedFonts[style]
	if !ok {
		var err error
		parsed, err = opentype.Parse(fontData(style))
		if err != nil {
			fontsMu.Unlock()
			dc.SetFontFace(basicfont.Face7x13)
			return
		}
		parsedFonts[style] = parsed
	}
	fontsMu.Unlock()

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}
	dc.SetFontFace(face)
}

// WeekImage рисует неделю (Пн-Вс), содержащую weekStart. now отмечает
// сегодняшний день и текущее время, labels подписывает слоты по ID.
func WeekImage(weekStart, now time.Time, slots []*model.TimeSlot, labels map[int64]string) ([]byte, error) {
	start := MondayOf(weekStart)
	end := start.AddDate(0, 0, daysInWeek-1)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, start.Location())
	highlightToday := !today.Before(start) && !today.After(end)

	byDay := make(map[string][]*model.TimeSlot)
	for _, slot := range slots {
		byDay[slot.DateKey()] = append(byDay[slot.DateKey()], slot)
	}
	hours := hoursFor(slots)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / daysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, start, end)
	drawHourLabels(dc, hours, cellHeight)

	date := start
	for i := 0; i < daysInWeek; i++ {
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, highlightToday && date.Equal(today))
		drawDayHeader(dc, date, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, slot := range byDay[date.Format(model.DateLayout)] {
			drawSlot(dc, slot, labels[slot.ID], x, y, dayWidth, hours, cellHeight)
		}

		date = date.AddDate(0, 0, 1)
	}

	if highlightToday {
		drawCurrentTimeLine(dc, now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// MondayOf возвращает полночь понедельника недели, содержащей date
func MondayOf(date time.Time) time.Time {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func hoursFor(slots []*model.TimeSlot) hourRange {
	minHour, maxHour := 24, 0
	for _, slot := range slots {
		startH := slot.StartTime.Hour()
		endH := slot.EndTime.Hour()
		if slot.EndTime.Minute() > 0 {
			endH++
		}
		minHour = min(minHour, startH)
		maxHour = max(maxHour, endH)
	}

	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	start := max(minHour-hourPaddingTop, 0)
	end := min(maxHour+hourPaddingBot, 24)

	return hourRange{start: start, end: end, total: end - start}
}

func drawHeader(dc *gg.Context, start, end time.Time) {
	title := fmt.Sprintf("%s %d", start.Month(), start.Year())
	if start.Month() != end.Month() {
		title = fmt.Sprintf("%s - %s %d", start.Month(), end.Month(), end.Year())
	}

	setFont(dc, titleFontSize, fontBold)
	dc.SetColor(textColor)
	w, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, w/2+10, float64(headerHeight)/8+h/2, 0, 0)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	setFont(dc, hourLabelFontSize, fontMedium)
	dc.SetColor(hourLabelColor)

	for i := 0; i < hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hours.start+i), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	setFont(dc, dayFontSize, fontBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(date.Weekday().String()[:3], x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawSlot(dc *gg.Context, slot *model.TimeSlot, label string, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startH := float64(slot.StartTime) / 60
	endH := float64(slot.EndTime) / 60

	slotY := y + (startH-float64(hours.start))*cellHeight
	slotHeight := max((endH-startH)*cellHeight, minSlotHeight)

	fill := slotColor(slot.Status)
	slotWidth := float64(dayWidth) - float64(dayPaddingX*2)

	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, slotY+2+shadowOffset, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darken(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Stroke()

	txt := slotTextColor
	if slot.Status == model.SlotStatusBooked {
		txt = slotBookedTextColor
	}

	setFont(dc, slotTimeFontSize, fontMedium)
	dc.SetColor(txt)
	txtX := x + dayPaddingX + 8
	txtY := slotY + 18
	dc.DrawStringAnchored(slot.StartTime.String(), txtX, txtY, 0, 0)

	if label != "" && slotHeight > 25 {
		r := []rune(label)
		if len(r) > 20 {
			label = string(r[:17]) + "..."
		}
		setFont(dc, slotTimeFontSize-2, fontMedium)
		dc.DrawStringAnchored(label, txtX, txtY+16, 0, 0)
	}
}

func slotColor(status model.SlotStatus) color.RGBA {
	switch status {
	case model.SlotStatusAvailable:
		return slotAvailableColor
	case model.SlotStatusBooked:
		return slotBookedColor
	case model.SlotStatusBlocked:
		return slotBlockedColor
	default:
		return slotDefaultColor
	}
}

func darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	current := float64(now.Hour()) + float64(now.Minute())/60
	if current < float64(hours.start) || current > float64(hours.end) {
		return
	}

	lineY := float64(headerHeight) + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2)
	dc.DrawLine(float64(leftLabelsWidth), lineY, float64(leftLabelsWidth+daysInWeek*dayWidth), lineY)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	items := []struct {
		label string
		clr   color.Color
	}{
		{"Available", slotAvailableColor},
		{"Booked", slotBookedColor},
		{"Blocked", slotBlockedColor},
	}

	const boxW, boxH = 20.0, 14.0
	lx := float64(leftLabelsWidth + daysInWeek*dayWidth + 10)
	ly := float64(imageHeight) - 78.0

	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(lx, ly, boxW, boxH, 3)
		dc.Fill()

		setFont(dc, legendItemFontSize, fontRegular)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, lx+boxW+8, ly+boxH/2+1, 0, 0.2)
		ly += boxH + 14
	}
}
