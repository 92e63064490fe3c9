package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ivlev/img2video/internal/config"
	"github.com/ivlev/img2video/internal/scheduler"
	"github.com/ivlev/img2video/internal/session"
	"github.com/ivlev/img2video/internal/sink"
	"github.com/ivlev/img2video/internal/source"
	"github.com/ivlev/img2video/internal/system"
)

func main() {
	// Создаем нужные директории, если их нет
	for _, d := range []string{"input", "output"} {
		os.MkdirAll(d, 0755)
	}

	inputPtr := flag.String("input", "", "Путь к PDF или папке с изображениями (по умолчанию: самый свежий файл в input/)")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	durationPtr := flag.Float64("duration", 5.0, "Длительность показа одного изображения в секундах")
	transitionPtr := flag.Float64("transition", 1.0, "Длительность перехода (сек), 0 отключает кроссфейд")
	widthPtr := flag.Int("width", 1280, "Ширина")
	heightPtr := flag.Int("height", 720, "Высота")
	fpsPtr := flag.Int("fps", 30, "FPS")
	fitPtr := flag.String("fit", "cover", "Вписывание изображения: cover, contain")
	kenBurnsPtr := flag.Bool("ken-burns", true, "Эффект Ken Burns (зум/панорама)")
	zoomPtr := flag.Float64("zoom", 1.2, "Коэффициент зума Ken Burns (>= 1)")
	panPtr := flag.String("pan", "random", "Направление: random, zoom-in, zoom-out, pan-left, pan-right, pan-up, pan-down")
	dpiPtr := flag.Int("dpi", 300, "DPI для рендеринга страниц PDF")
	presetPtr := flag.String("preset", "", "Пресет формата: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	qrPtr := flag.String("qr", "", "Добавить в конец слайд с QR-кодом на указанный URL")
	settingsPtr := flag.String("settings", "", "Путь к YAML с настройками (флаги имеют приоритет)")
	saveSettingsPtr := flag.String("save-settings", "", "Сохранить итоговые настройки в YAML и выйти")
	debugPtr := flag.Bool("debug", false, "Отладочный оверлей с номером слайда и прогрессом")

	flag.Parse()

	settings := config.Default()
	if *settingsPtr != "" {
		loaded, err := config.Load(*settingsPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка чтения настроек: %v", err)
		}
		settings = loaded
	}

	// Флаги, заданные явно, перекрывают файл настроек. Значения по
	// умолчанию у флагов совпадают с config.Default().
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			settings.DurationPerImage = *durationPtr
		case "transition":
			settings.TransitionDuration = *transitionPtr
		case "width":
			settings.Width = *widthPtr
		case "height":
			settings.Height = *heightPtr
		case "fps":
			settings.FPS = *fpsPtr
		case "fit":
			settings.ImageFit = *fitPtr
		case "ken-burns":
			settings.KenBurns.Enabled = *kenBurnsPtr
		case "zoom":
			settings.KenBurns.ZoomFactor = *zoomPtr
		case "pan":
			settings.KenBurns.PanDirection = *panPtr
		case "quality":
			settings.Quality = *qualityPtr
		case "debug":
			settings.Debug = *debugPtr
		}
	})

	switch *presetPtr {
	case "16:9":
		settings.Width, settings.Height = 1280, 720
	case "9:16":
		settings.Width, settings.Height = 720, 1280
	case "4:5":
		settings.Width, settings.Height = 1080, 1350
	}

	if *saveSettingsPtr != "" {
		if err := config.Save(settings, *saveSettingsPtr); err != nil {
			log.Fatalf("[-] Ошибка сохранения настроек: %v", err)
		}
		fmt.Printf("[*] Настройки сохранены: %s\n", *saveSettingsPtr)
		return
	}

	inputPath := *inputPtr
	if inputPath == "" {
		latest, err := system.FindLatestInput("input")
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите PDF или изображения в input/", err)
		}
		inputPath = latest
		fmt.Printf("[*] Выбран источник: %s\n", inputPath)
	}

	var src source.Source
	var err error
	if strings.HasSuffix(strings.ToLower(inputPath), ".pdf") {
		src, err = source.NewFitzSource(inputPath, *dpiPtr)
	} else {
		src, err = source.NewImageSource(inputPath)
	}
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации источника: %v", err)
	}
	defer src.Close()

	sources := []source.Source{src}
	if *qrPtr != "" {
		qr, err := source.NewQRSource(*qrPtr, min(settings.Width, settings.Height)/2)
		if err != nil {
			log.Fatalf("[-] Ошибка генерации QR-кода: %v", err)
		}
		sources = append(sources, qr)
	}

	encoder, err := sink.NegotiateEncoder()
	if err != nil {
		log.Fatalf("[-] Ошибка: %v. Установите ffmpeg", err)
	}
	if encoder != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoder)
	}
	settings.VideoEncoder = encoder

	finalOutput := *outputPtr
	if finalOutput == "" {
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		cleanName := strings.ReplaceAll(base, " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		finalOutput = filepath.Join("output", fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sk := sink.NewFFmpeg(ctx, encoder, settings.Quality)

	lastPct := -5.0
	onProgress := func(p scheduler.Progress) {
		if p.Percentage-lastPct < 5 && p.Percentage < 100 {
			return
		}
		lastPct = p.Percentage
		fmt.Printf("[>] %5.1f%% %s\n", p.Percentage, p.Task)
	}

	sess := session.New(settings, sk, onProgress, sources...)
	defer sess.Close()

	started := time.Now()
	artifact, err := sess.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			log.Fatalf("[-] Прервано: %v", err)
		}
		log.Fatalf("[-] Ошибка генерации (%s): %v", session.KindOf(err), err)
	}

	if err := os.WriteFile(finalOutput, artifact.Data, 0644); err != nil {
		log.Fatalf("[-] Ошибка записи результата: %v", err)
	}

	fmt.Printf("[+++] Успех! Результат: %s (%.1fs, %d КБ)\n",
		finalOutput, time.Since(started).Seconds(), len(artifact.Data)/1024)
}
